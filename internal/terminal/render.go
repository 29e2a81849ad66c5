package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/crosszero/tictactoe/internal/entity"
)

const boardSeparator = "---+---+---"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1)
	markXStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	markOStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// RenderBoard draws the 3x3 board the way the terminal game always has:
//
//	 X | O |
//	---+---+---
//	   | X |
//	---+---+---
//	   |   | O
//
// Empty cells show their 1-9 position as a faint hint.
func RenderBoard(board [9]string) string {
	var b strings.Builder

	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			idx := row*3 + col
			cells[col] = renderCell(board[idx], idx)
		}

		b.WriteString(fmt.Sprintf(" %s | %s | %s ", cells[0], cells[1], cells[2]))
		b.WriteString("\n")

		if row < 2 {
			b.WriteString(boardSeparator)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderCell(mark string, idx int) string {
	switch mark {
	case entity.PlayerX:
		return markXStyle.Render(entity.PlayerX)
	case entity.PlayerO:
		return markOStyle.Render(entity.PlayerO)
	default:
		return hintStyle.Render(fmt.Sprintf("%d", idx+1))
	}
}

// resultLine announces the outcome of a finished game.
func resultLine(game *entity.Game) string {
	if game.Winner == entity.PlayerTie {
		return "It's a draw!"
	}

	return fmt.Sprintf("Player %s wins!", game.Winner)
}

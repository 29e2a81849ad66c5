package terminal

import (
	"strings"
	"testing"

	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBoard(t *testing.T) {
	t.Run("Board has three rows and two separators", func(t *testing.T) {
		// Given: an empty board
		var board [9]string

		// When: rendering it
		out := RenderBoard(board)

		// Then: the classic layout comes out
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, boardSeparator, lines[1])
		assert.Equal(t, boardSeparator, lines[3])
	})

	t.Run("Empty cells show their position hints", func(t *testing.T) {
		// Given: an empty board
		var board [9]string

		// When: rendering it
		out := RenderBoard(board)

		// Then: all nine position hints are present
		for _, hint := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"} {
			assert.Contains(t, out, hint)
		}
	})

	t.Run("Marks replace the hints of their cells", func(t *testing.T) {
		// Given: a board with X in the corner and O in the center
		board := [9]string{
			entity.PlayerX, entity.EmptyCell, entity.EmptyCell,
			entity.EmptyCell, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: rendering it
		out := RenderBoard(board)

		// Then: the marks are shown and their hints are gone
		assert.Contains(t, out, entity.PlayerX)
		assert.Contains(t, out, entity.PlayerO)

		lines := strings.Split(out, "\n")
		assert.NotContains(t, lines[0], "1")
		assert.NotContains(t, lines[2], "5")
	})
}

func TestResultLine(t *testing.T) {
	t.Run("Announces the winner", func(t *testing.T) {
		// Given: a finished game won by X
		game := &entity.Game{Winner: entity.PlayerX, Status: entity.StatusFinished}

		// Then: the result names the winner
		assert.Equal(t, "Player X wins!", resultLine(game))
	})

	t.Run("Announces a draw", func(t *testing.T) {
		// Given: a finished game with no winner
		game := &entity.Game{Winner: entity.PlayerTie, Status: entity.StatusFinished}

		// Then: the result is a draw
		assert.Equal(t, "It's a draw!", resultLine(game))
	})
}

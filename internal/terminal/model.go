// Package terminal is the interactive text UI: an ASCII 3x3 board, a mode
// menu, and keyboard-driven turns. It follows The Elm Architecture via
// bubbletea: state in Model, transitions in Update, rendering in View.
package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/crosszero/tictactoe/internal/entity"
)

// appState represents which screen the player is on.
type appState int

const (
	stateMenu appState = iota
	stateJoinInput
	stateConnecting
	stateGame
)

type menuMode int

const (
	modeHotseat menuMode = iota
	modeBot
	modeQuickMatch
	modePrivateGame
	modeJoinGame
	modeQuit
)

type menuItem struct {
	label      string
	mode       menuMode
	difficulty string
}

// sessionStartedMsg delivers a freshly created session to the model.
type sessionStartedMsg struct {
	session session
}

type Model struct {
	ctx    context.Context //nolint: containedctx // scoped to the program's lifetime
	logger *slog.Logger

	serverURL string

	state     appState
	menuItems []menuItem
	cursor    int

	joinInput textinput.Model

	session session
	// game is the model's own snapshot of the session state; commands deliver
	// fresh snapshots via gameUpdateMsg, so View never touches shared state.
	game    *entity.Game
	lastErr error
}

func NewModel(ctx context.Context, logger *slog.Logger, serverURL string) Model {
	joinInput := textinput.New()
	joinInput.Placeholder = "game code"
	joinInput.CharLimit = 16
	joinInput.Width = 20

	return Model{
		ctx:       ctx,
		logger:    logger,
		serverURL: serverURL,
		state:     stateMenu,
		menuItems: []menuItem{
			{label: "Hotseat - two players, one keyboard", mode: modeHotseat},
			{label: "Versus bot - easy", mode: modeBot, difficulty: entity.DifficultyEasy},
			{label: "Versus bot - medium", mode: modeBot, difficulty: entity.DifficultyMedium},
			{label: "Versus bot - hard", mode: modeBot, difficulty: entity.DifficultyHard},
			{label: "Online - quick match", mode: modeQuickMatch},
			{label: "Online - create private game", mode: modePrivateGame},
			{label: "Online - join by code", mode: modeJoinGame},
			{label: "Quit", mode: modeQuit},
		},
		joinInput: joinInput,
	}
}

// Run starts the interactive terminal game.
func Run(ctx context.Context, logger *slog.Logger, serverURL string) error {
	program := tea.NewProgram(NewModel(ctx, logger, serverURL), tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal program failed: %w", err)
	}

	return nil
}

func (that Model) Init() tea.Cmd {
	return nil
}

func (that Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			that.closeSession()
			return that, tea.Quit
		}

		switch that.state {
		case stateMenu:
			return that.updateMenu(msg)
		case stateJoinInput:
			return that.updateJoinInput(msg)
		case stateConnecting:
			return that, nil
		case stateGame:
			return that.updateGame(msg)
		}

	case sessionStartedMsg:
		that.session = msg.session
		that.game = msg.session.Game()
		that.state = stateGame
		that.lastErr = nil
		return that, that.session.Listen()

	case gameUpdateMsg:
		that.lastErr = nil
		if msg.game != nil {
			that.game = msg.game
		}
		if that.session == nil {
			return that, nil
		}
		return that, that.session.Listen()

	case gameErrMsg:
		that.lastErr = msg.err
		if that.state == stateConnecting || that.session == nil {
			that.state = stateMenu
			return that, nil
		}
		return that, that.session.Listen()
	}

	return that, nil
}

func (that Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if that.cursor > 0 {
			that.cursor--
		}
	case "down", "j":
		if that.cursor < len(that.menuItems)-1 {
			that.cursor++
		}
	case "q":
		return that, tea.Quit
	case "enter":
		return that.selectMenuItem(that.menuItems[that.cursor])
	}

	return that, nil
}

func (that Model) selectMenuItem(item menuItem) (tea.Model, tea.Cmd) {
	that.lastErr = nil

	switch item.mode {
	case modeHotseat:
		that.session = newHotseatSession()
		that.game = that.session.Game()
		that.state = stateGame
		return that, nil

	case modeBot:
		that.session = newBotSession(item.difficulty)
		that.game = that.session.Game()
		that.state = stateGame
		return that, nil

	case modeQuickMatch:
		that.state = stateConnecting
		return that, that.startRemote(entity.PublicType, "", "")

	case modePrivateGame:
		that.state = stateConnecting
		return that, that.startRemote(entity.PrivateType, "", "")

	case modeJoinGame:
		that.state = stateJoinInput
		that.joinInput.SetValue("")
		return that, that.joinInput.Focus()

	case modeQuit:
		return that, tea.Quit
	}

	return that, nil
}

func (that Model) updateJoinInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		that.state = stateMenu
		return that, nil
	case "enter":
		code := strings.TrimSpace(that.joinInput.Value())
		if code == "" {
			return that, nil
		}

		that.state = stateConnecting
		return that, that.startRemote("", "", code)
	}

	var cmd tea.Cmd
	that.joinInput, cmd = that.joinInput.Update(msg)
	return that, cmd
}

func (that Model) startRemote(gameType, difficulty, joinID string) tea.Cmd {
	return func() tea.Msg {
		s, err := dialRemote(that.ctx, that.logger, that.serverURL, gameType, difficulty, joinID)
		if err != nil {
			return gameErrMsg{err: err}
		}

		return sessionStartedMsg{session: s}
	}
}

func (that Model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	game := that.game

	switch key := msg.String(); key {
	case "q", "esc":
		that.closeSession()
		that.state = stateMenu
		return that, nil

	case "enter":
		if game != nil && (game.IsFinished() || game.IsForfeited()) {
			that.closeSession()
			that.state = stateMenu
		}
		return that, nil

	default:
		if game == nil || !game.IsOngoing() {
			return that, nil
		}

		if len(key) != 1 || key[0] < '1' || key[0] > '9' {
			return that, nil
		}

		if !that.session.ControlsMark(game.Turn) {
			return that, nil
		}

		cell := int(key[0] - '1')
		return that, that.session.MakeTurn(cell)
	}
}

func (that *Model) closeSession() {
	if that.session != nil {
		that.session.Close()
		that.session = nil
	}
	that.game = nil
}

func (that Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tic-Tac-Toe"))
	b.WriteString("\n")

	switch that.state {
	case stateMenu:
		that.viewMenu(&b)
	case stateJoinInput:
		b.WriteString("Enter the game code:\n\n")
		b.WriteString(that.joinInput.View())
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter: join - esc: back"))
	case stateConnecting:
		b.WriteString("Connecting to server...\n")
	case stateGame:
		that.viewGame(&b)
	}

	if that.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(that.lastErr.Error()))
	}

	b.WriteString("\n")

	return b.String()
}

func (that Model) viewMenu(b *strings.Builder) {
	for i, item := range that.menuItems {
		cursor := "  "
		label := item.label
		if i == that.cursor {
			cursor = cursorStyle.Render("> ")
			label = cursorStyle.Render(label)
		}
		fmt.Fprintf(b, "%s%s\n", cursor, label)
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("up/down: move - enter: select - q: quit"))
}

func (that Model) viewGame(b *strings.Builder) {
	game := that.game
	if game == nil {
		b.WriteString("Waiting for the game to start...\n")
		return
	}

	b.WriteString(RenderBoard(game.Board))
	b.WriteString("\n")
	b.WriteString(that.statusLine(game))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("1-9: place mark - q: leave"))
}

func (that Model) statusLine(game *entity.Game) string {
	switch {
	case game.IsFinished():
		return statusStyle.Render(resultLine(game)) + hintStyle.Render("  (enter: back to menu)")
	case game.IsForfeited():
		return statusStyle.Render("The game is over: a player left.") + hintStyle.Render("  (enter: back to menu)")
	case game.IsWaiting():
		return statusStyle.Render(fmt.Sprintf("Waiting for an opponent... share code %s", game.ID))
	case that.session.ControlsMark(game.Turn):
		return statusStyle.Render(fmt.Sprintf("Player %s, enter a position (1-9)", game.Turn))
	default:
		return statusStyle.Render(fmt.Sprintf("Waiting for player %s...", game.Turn))
	}
}

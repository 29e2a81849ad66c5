package terminal

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/crosszero/tictactoe/internal/service"
)

// gameUpdateMsg carries a fresh game state into the model. The game is a
// snapshot owned by the receiver; sessions never hand out their live state.
type gameUpdateMsg struct {
	game *entity.Game
}

// gameErrMsg carries a rejected move or a transport failure.
type gameErrMsg struct {
	err error
}

// session is a running game the terminal can play: local (hotseat or versus
// the bot) or remote (over the backend's WebSocket protocol).
type session interface {
	// Game returns a snapshot of the last known game state.
	Game() *entity.Game

	// ControlsMark reports whether this terminal moves for the given mark.
	ControlsMark(mark string) bool

	// MakeTurn places a mark on the given cell and eventually produces a
	// gameUpdateMsg or a gameErrMsg.
	MakeTurn(cell int) tea.Cmd

	// Listen waits for out-of-band updates (remote games only).
	Listen() tea.Cmd

	// Close releases any resources held by the session.
	Close()
}

// localSession runs the whole game in-process. In hotseat mode the terminal
// controls both marks; in bot mode the bot answers each human move.
//
// Commands run on their own goroutines while the program goroutine renders,
// so the live game stays behind the mutex and only snapshots leave it.
type localSession struct {
	mu      sync.Mutex
	game    *entity.Game
	bot     service.BotService
	botMark string
}

func newHotseatSession() *localSession {
	game := entity.NewGame("local", entity.PrivateType)
	game.Status = entity.StatusOngoing

	return &localSession{game: game}
}

func newBotSession(difficulty string) *localSession {
	game := entity.NewGame("local", entity.WithBotType)
	game.Difficulty = difficulty
	game.Status = entity.StatusOngoing

	s := &localSession{
		game: game,
		bot:  service.NewBotService(),
	}

	humanMark, botMark := game.GetRandomMarks()
	s.botMark = botMark
	game.Players = []*entity.Player{
		{ID: "human", Mark: humanMark, GameID: game.ID},
		entity.NewBotPlayer(game.ID, botMark),
	}

	// the bot opens when it drew X
	if botMark == entity.PlayerX {
		_ = s.bot.MakeTurn(game)
	}

	return s
}

func (that *localSession) Game() *entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Clone()
}

func (that *localSession) ControlsMark(mark string) bool {
	return that.botMark == "" || mark != that.botMark
}

func (that *localSession) MakeTurn(cell int) tea.Cmd {
	return func() tea.Msg {
		that.mu.Lock()
		defer that.mu.Unlock()

		if err := that.game.MakeTurn(that.game.Turn, cell); err != nil {
			return gameErrMsg{err: err}
		}

		if that.bot != nil && !that.game.IsFinished() {
			if err := that.bot.MakeTurn(that.game); err != nil {
				return gameErrMsg{err: err}
			}
		}

		return gameUpdateMsg{game: that.game.Clone()}
	}
}

func (that *localSession) Listen() tea.Cmd {
	return nil
}

func (that *localSession) Close() {}

package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crosszero/tictactoe/internal/client"
	"github.com/crosszero/tictactoe/internal/entity"
)

// remoteSession plays a game hosted on the backend. The terminal controls a
// single mark; everything else arrives as server pushes. The mutex covers
// player and game, which Listen commands rewrite while the program goroutine
// asks for snapshots.
type remoteSession struct {
	logger *slog.Logger
	client *client.Client

	ctx context.Context //nolint: containedctx // scoped to the TUI program's lifetime

	mu     sync.Mutex
	player *entity.Player
	game   *entity.Game
}

// dialRemote connects to the server and requests a game. Exactly one of
// gameType (for new games) or joinID (for joining by code) is used.
func dialRemote(ctx context.Context, logger *slog.Logger, serverURL, gameType, difficulty, joinID string) (*remoteSession, error) {
	c, err := client.Dial(ctx, logger, serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial server: %w", err)
	}

	player, game, err := c.Connect(ctx, "")
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if joinID != "" {
		err = c.JoinGame(ctx, player.ID, joinID)
	} else {
		err = c.NewGame(ctx, player.ID, gameType, difficulty)
	}

	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to request game: %w", err)
	}

	return &remoteSession{
		logger: logger,
		client: c,
		ctx:    ctx,
		player: player,
		game:   game,
	}, nil
}

func (that *remoteSession) Game() *entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game == nil {
		return nil
	}

	return that.game.Clone()
}

func (that *remoteSession) ControlsMark(mark string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.player.Mark != "" && that.player.Mark == mark
}

func (that *remoteSession) MakeTurn(cell int) tea.Cmd {
	return func() tea.Msg {
		that.mu.Lock()
		playerID := that.player.ID
		that.mu.Unlock()

		if err := that.client.MakeTurn(that.ctx, playerID, cell); err != nil {
			return gameErrMsg{err: err}
		}

		// the resulting state arrives as a server push via Listen
		return nil
	}
}

// Listen blocks on the next server push and converts it into a model message.
func (that *remoteSession) Listen() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-that.client.Updates()
		if !ok {
			return gameErrMsg{err: fmt.Errorf("connection closed")}
		}

		if update.Err != nil {
			return gameErrMsg{err: update.Err}
		}

		if update.Payload.Error != "" {
			return gameErrMsg{err: fmt.Errorf("%s", update.Payload.Error)}
		}

		that.mu.Lock()
		defer that.mu.Unlock()

		if update.Payload.Player != nil && update.Payload.Player.ID == that.player.ID {
			that.player = update.Payload.Player
		}

		if update.Payload.Game != nil {
			that.game = update.Payload.Game
		}

		if that.game == nil {
			return gameUpdateMsg{}
		}

		return gameUpdateMsg{game: that.game.Clone()}
	}
}

func (that *remoteSession) Close() {
	that.mu.Lock()
	playerID := that.player.ID
	ongoing := that.game != nil && that.game.IsOngoing()
	that.mu.Unlock()

	if ongoing {
		_ = that.client.LeaveGame(that.ctx, playerID)
	}

	that.client.Close()
}

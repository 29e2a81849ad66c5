// Package client implements the WebSocket side of the game protocol: JSON
// messages of the form {action, payload} exchanged with the backend's /ws
// endpoint.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"github.com/crosszero/tictactoe/internal/entity"
)

const (
	ActionConnect   = "connect"
	ActionGameNew   = "game:new"
	ActionGameJoin  = "game:join"
	ActionGameTurn  = "game:turn"
	ActionGameLeave = "game:leave"
)

// Message mirrors the server's wire format.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Cell   *int           `json:"cell,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Update is a decoded server push delivered on the Updates channel.
type Update struct {
	Action  string
	Payload Payload
	Err     error
}

type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn

	updates chan Update

	closeOnce sync.Once
}

// Dial connects to the backend's /ws endpoint and starts the read loop.
func Dial(ctx context.Context, logger *slog.Logger, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil) //nolint: bodyclose // closed via conn.Close
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Client{
		logger:  logger,
		conn:    conn,
		updates: make(chan Update, 8),
	}

	go c.readLoop(ctx)

	return c, nil
}

// Updates returns the channel of server pushes. The channel is closed when
// the connection drops.
func (that *Client) Updates() <-chan Update {
	return that.updates
}

// Send writes an {action, payload} message to the server.
func (that *Client) Send(ctx context.Context, action string, payload Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := Message{
		Action:  action,
		Payload: payloadJSON,
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = that.conn.Write(ctx, websocket.MessageText, msgJSON); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Connect registers (or resumes) a player session and waits for the reply.
func (that *Client) Connect(ctx context.Context, playerID string) (*entity.Player, *entity.Game, error) {
	err := that.Send(ctx, ActionConnect, Payload{Player: &entity.Player{ID: playerID}})
	if err != nil {
		return nil, nil, err
	}

	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("connect canceled: %w", ctx.Err())
	case update, ok := <-that.updates:
		if !ok {
			return nil, nil, fmt.Errorf("connection closed during connect")
		}

		if update.Err != nil {
			return nil, nil, update.Err
		}

		if update.Payload.Error != "" {
			return nil, nil, fmt.Errorf("server rejected connect: %s", update.Payload.Error)
		}

		return update.Payload.Player, update.Payload.Game, nil
	}
}

// NewGame asks the server for a new game of the given type.
func (that *Client) NewGame(ctx context.Context, playerID, gameType, difficulty string) error {
	return that.Send(ctx, ActionGameNew, Payload{
		Player: &entity.Player{ID: playerID},
		Game:   &entity.Game{Type: gameType, Difficulty: difficulty},
	})
}

// JoinGame joins a private game by its shareable code.
func (that *Client) JoinGame(ctx context.Context, playerID, gameID string) error {
	return that.Send(ctx, ActionGameJoin, Payload{
		Player: &entity.Player{ID: playerID},
		Game:   &entity.Game{ID: gameID},
	})
}

// MakeTurn places the player's mark on the given cell (0-8).
func (that *Client) MakeTurn(ctx context.Context, playerID string, cell int) error {
	return that.Send(ctx, ActionGameTurn, Payload{
		Player: &entity.Player{ID: playerID},
		Cell:   &cell,
	})
}

// LeaveGame forfeits the current game.
func (that *Client) LeaveGame(ctx context.Context, playerID string) error {
	return that.Send(ctx, ActionGameLeave, Payload{
		Player: &entity.Player{ID: playerID},
	})
}

func (that *Client) Close() {
	that.closeOnce.Do(func() {
		_ = that.conn.Close(websocket.StatusNormalClosure, "bye")
	})
}

func (that *Client) readLoop(ctx context.Context) {
	defer close(that.updates)

	for {
		_, data, err := that.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				that.logger.Error("read loop stopped", "error", err)
				that.updates <- Update{Err: fmt.Errorf("connection lost: %w", err)}
			}
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			that.logger.Error("failed to unmarshal message", "error", err)
			continue
		}

		var payload Payload
		if len(msg.Payload) > 0 {
			if err = json.Unmarshal(msg.Payload, &payload); err != nil {
				that.logger.Error("failed to unmarshal payload", "error", err)
				continue
			}
		}

		that.updates <- Update{Action: msg.Action, Payload: payload}
	}
}

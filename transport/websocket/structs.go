package websocket

import (
	"encoding/json"

	"github.com/crosszero/tictactoe/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
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

// frame represents a WebSocket frame and its metadata.
type frame struct {
	isFin   bool   // final fragment of the message
	opCode  byte   // frame type (1 = text)
	length  uint64 // payload length
	payload []byte
}

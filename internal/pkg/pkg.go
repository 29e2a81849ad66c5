package pkg

import (
	"crypto/rand"
	"crypto/sha1" //nolint: gosec // RFC 6455 requires SHA-1 for the WebSocket handshake
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Static GUID defined in RFC 6455 for WebSocket.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const gameIDDigits = 8

// GenerateAcceptKey - generates key for WebSocket handshake.
func GenerateAcceptKey(key string) string {
	h := sha1.New() //nolint: gosec // see above

	h.Write([]byte(key + websocketGUID))

	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// GenerateNewSessionID - generates a new unique sessionID.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// GenerateGameID - generates a short numeric code players can share to join a game.
func GenerateGameID() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < gameIDDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate game id: %w", err)
	}

	return fmt.Sprintf("%0*d", gameIDDigits, n), nil
}

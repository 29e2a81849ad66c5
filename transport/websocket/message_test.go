package websocket

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn() *conn {
	buf := &bytes.Buffer{}
	return &conn{bufrw: bufio.NewReadWriter(bufio.NewReader(buf), bufio.NewWriter(buf))}
}

func TestFrameRoundTrip(t *testing.T) {
	server := &Server{}

	t.Run("Short text frame survives the round trip", func(t *testing.T) {
		// Given: a game state message written to the wire
		c := newTestConn()
		game := entity.NewGame("1001", entity.PrivateType)

		require.NoError(t, server.sendMessage(c, "game:new", Payload{Game: game}))

		// When: the frame is read back
		raw, err := server.readRequest(c.bufrw)
		require.NoError(t, err)

		// Then: the original message comes out
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "game:new", msg.Action)

		var payload Payload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		require.NotNil(t, payload.Game)
		assert.Equal(t, game.ID, payload.Game.ID)
	})

	t.Run("Extended length frame survives the round trip", func(t *testing.T) {
		// Given: a payload longer than 125 bytes, forcing the 16-bit length form
		c := newTestConn()
		payload := bytes.Repeat([]byte("a"), 300)

		f := frame{
			isFin:   true,
			opCode:  1,
			length:  uint64(len(payload)),
			payload: payload,
		}
		require.NoError(t, writeFrame(c.bufrw, f))

		// When: the frame is read back
		raw, err := server.readRequest(c.bufrw)

		// Then: the payload is intact
		require.NoError(t, err)
		assert.Equal(t, payload, raw)
	})
}

func TestSendMessage_ConcurrentWriters(t *testing.T) {
	server := &Server{}

	t.Run("Frames from concurrent senders never interleave", func(t *testing.T) {
		// Given: one connection written to by many goroutines, the way a
		// broadcast from another player's handler lands on this socket
		c := newTestConn()
		game := entity.NewGame("1001", entity.PublicType)

		const senders = 16

		var wg sync.WaitGroup
		for i := 0; i < senders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, server.sendMessage(c, "game:turn", Payload{Game: game}))
			}()
		}
		wg.Wait()

		// When: everything on the wire is read back
		// Then: every frame parses as a complete message
		for i := 0; i < senders; i++ {
			raw, err := server.readRequest(c.bufrw)
			require.NoError(t, err)

			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "game:turn", msg.Action)
		}
	})
}

func TestReadRequest_MaskedFrame(t *testing.T) {
	server := &Server{}

	t.Run("Client masked frame is unmasked", func(t *testing.T) {
		// Given: a masked text frame as a browser client would send it
		payload := []byte(`{"action":"connect"}`)
		mask := []byte{0x1a, 0x2b, 0x3c, 0x4d}

		masked := make([]byte, len(payload))
		for i, b := range payload {
			masked[i] = b ^ mask[i%4]
		}

		var wire bytes.Buffer
		wire.WriteByte(0x81)                      // FIN + text opcode
		wire.WriteByte(0x80 | byte(len(payload))) // mask bit + length
		wire.Write(mask)
		wire.Write(masked)

		bufrw := bufio.NewReadWriter(bufio.NewReader(&wire), bufio.NewWriter(&wire))

		// When: the frame is read
		raw, err := server.readRequest(bufrw)

		// Then: the payload is unmasked back to the original bytes
		require.NoError(t, err)
		assert.Equal(t, payload, raw)
	})

	t.Run("Close frame reads as EOF", func(t *testing.T) {
		// Given: an unmasked close frame
		var wire bytes.Buffer
		wire.WriteByte(0x88) // FIN + close opcode
		wire.WriteByte(0x00)

		bufrw := bufio.NewReadWriter(bufio.NewReader(&wire), bufio.NewWriter(&wire))

		// When: the frame is read
		_, err := server.readRequest(bufrw)

		// Then: the connection is treated as closed
		assert.ErrorIs(t, err, io.EOF)
	})
}

package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAcceptKey(t *testing.T) {
	t.Run("Matches the RFC 6455 sample handshake", func(t *testing.T) {
		// Given: the sample client key from the RFC
		clientKey := "dGhlIHNhbXBsZSBub25jZQ=="

		// When: computing the accept key
		acceptKey := GenerateAcceptKey(clientKey)

		// Then: it matches the value the RFC prescribes
		assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", acceptKey)
	})
}

func TestGenerateNewSessionID(t *testing.T) {
	t.Run("Session ids are unique", func(t *testing.T) {
		// When: generating two session ids
		first := GenerateNewSessionID()
		second := GenerateNewSessionID()

		// Then: both are non-empty and distinct
		assert.NotEmpty(t, first)
		assert.NotEmpty(t, second)
		assert.NotEqual(t, first, second)
	})
}

func TestGenerateGameID(t *testing.T) {
	t.Run("Game ids are short numeric codes", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			// When: generating a game id
			gameID, err := GenerateGameID()
			require.NoError(t, err)

			// Then: it is exactly eight digits
			assert.Len(t, gameID, 8)
			for _, r := range gameID {
				assert.True(t, r >= '0' && r <= '9', "unexpected character %q in game id %s", r, gameID)
			}
		}
	})
}

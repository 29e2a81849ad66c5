package repository_test

import (
	"testing"

	"github.com/crosszero/tictactoe/internal/apperror"
	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/crosszero/tictactoe/internal/repository"
	"github.com/crosszero/tictactoe/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, s := suite.New(t)
	gameRepo := repository.NewGameRepository(s.Storage)

	t.Run("CreateOrUpdate and GetByID round trip", func(t *testing.T) {
		// Given: an ongoing private game with one move played
		game := entity.NewGame("1001", entity.PrivateType)
		game.Status = entity.StatusOngoing
		require.NoError(t, game.MakeTurn(entity.PlayerX, 4))

		// When: the game is stored and read back
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))
		stored, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the stored game matches what was written
		require.NoError(t, err)
		assert.Equal(t, game.ID, stored.ID)
		assert.Equal(t, game.Board, stored.Board)
		assert.Equal(t, entity.PlayerO, stored.Turn)
	})

	t.Run("GetByID returns ErrGameNotFound for an unknown id", func(t *testing.T) {
		// When: requesting a game that was never stored
		_, err := gameRepo.GetByID(ctx, "does-not-exist")

		// Then: ErrGameNotFound is returned
		assert.ErrorIs(t, err, repository.ErrGameNotFound)
	})

	t.Run("DeleteByID removes the game", func(t *testing.T) {
		// Given: a stored game
		game := entity.NewGame("1002", entity.PrivateType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: the game is deleted
		require.NoError(t, gameRepo.DeleteByID(ctx, game.ID))

		// Then: it can no longer be read
		_, err := gameRepo.GetByID(ctx, game.ID)
		assert.ErrorIs(t, err, repository.ErrGameNotFound)
	})
}

func TestGameRepository_WaitingIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, s := suite.New(t)
	gameRepo := repository.NewGameRepository(s.Storage)

	t.Run("No waiting games yields ErrNoWaitingGames", func(t *testing.T) {
		// When: the matchmaking index is empty
		_, err := gameRepo.GetWaitingPublicGame(ctx)

		// Then: ErrNoWaitingGames is returned
		assert.ErrorIs(t, err, apperror.ErrNoWaitingGames)
	})

	t.Run("Waiting public game is claimed exactly once", func(t *testing.T) {
		// Given: a stored waiting public game
		game := entity.NewGame("2001", entity.PublicType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: two players ask for a waiting public game
		found, err := gameRepo.GetWaitingPublicGame(ctx)
		require.NoError(t, err)
		_, secondErr := gameRepo.GetWaitingPublicGame(ctx)

		// Then: only the first claim gets the game
		assert.Equal(t, game.ID, found.ID)
		assert.ErrorIs(t, secondErr, apperror.ErrNoWaitingGames)
	})

	t.Run("Game leaves the index once it starts", func(t *testing.T) {
		// Given: a waiting public game that moves to ongoing
		game := entity.NewGame("2004", entity.PublicType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		game.Status = entity.StatusOngoing

		// When: the updated game is stored
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// Then: matchmaking finds nothing
		_, err := gameRepo.GetWaitingPublicGame(ctx)
		assert.ErrorIs(t, err, apperror.ErrNoWaitingGames)
	})

	t.Run("Stale index entry falls through to no waiting games", func(t *testing.T) {
		// Given: an index entry whose game record is gone
		require.NoError(t, s.Storage.SAdd(ctx, "games:public:waiting", "9999").Err())

		// When: asking for a waiting public game
		_, err := gameRepo.GetWaitingPublicGame(ctx)

		// Then: the caller is told to create a fresh game and the entry is gone
		assert.ErrorIs(t, err, apperror.ErrNoWaitingGames)

		members, err := s.Storage.SMembers(ctx, "games:public:waiting").Result()
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("Deleting a waiting game clears the index", func(t *testing.T) {
		// Given: another waiting public game
		game := entity.NewGame("2002", entity.PublicType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: the game is deleted
		require.NoError(t, gameRepo.DeleteByID(ctx, game.ID))

		// Then: matchmaking finds nothing
		_, err := gameRepo.GetWaitingPublicGame(ctx)
		assert.ErrorIs(t, err, apperror.ErrNoWaitingGames)
	})

	t.Run("Private games are never indexed", func(t *testing.T) {
		// Given: a stored waiting private game
		game := entity.NewGame("2003", entity.PrivateType)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: asking for a waiting public game
		_, err := gameRepo.GetWaitingPublicGame(ctx)

		// Then: the private game is not offered
		assert.ErrorIs(t, err, apperror.ErrNoWaitingGames)
	})
}

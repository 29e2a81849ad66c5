package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crosszero/tictactoe/internal/apperror"
	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/redis/go-redis/v9"
)

var ErrGameNotFound = errors.New("game not found")

const waitingGamesKey = "games:public:waiting"

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	gameKey := "game:" + game.ID
	err = that.client.Set(ctx, gameKey, gameJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if err = that.updateWaitingIndex(ctx, game); err != nil {
		return err
	}

	return nil
}

// updateWaitingIndex keeps the matchmaking set in sync: a public game sits in
// the set only while it is waiting for a second player.
func (that *dbGame) updateWaitingIndex(ctx context.Context, game *entity.Game) error {
	if game.IsPublic() && game.IsWaiting() {
		if err := that.client.SAdd(ctx, waitingGamesKey, game.ID).Err(); err != nil {
			return fmt.Errorf("failed to index waiting game: %w", err)
		}

		return nil
	}

	if err := that.client.SRem(ctx, waitingGamesKey, game.ID).Err(); err != nil {
		return fmt.Errorf("failed to deindex game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	gameKey := "game:" + id

	response, err := that.client.Get(ctx, gameKey).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// GetWaitingPublicGame atomically claims a waiting game for the caller. SPop
// removes the id from the index in the same step, so two players asking at
// once can never be handed the same game.
func (that *dbGame) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	gameID, err := that.client.SPop(ctx, waitingGamesKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrNoWaitingGames
	}

	if err != nil {
		return nil, fmt.Errorf("failed to claim waiting game: %w", err)
	}

	game, err := that.GetByID(ctx, gameID)
	if errors.Is(err, ErrGameNotFound) {
		// stale index entry; the pop already dropped it, so the caller can
		// fall through to creating a fresh game
		return nil, apperror.ErrNoWaitingGames
	}

	if err != nil {
		return nil, err
	}

	return game, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	gameKey := "game:" + id

	err := that.client.Del(ctx, gameKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if err = that.client.SRem(ctx, waitingGamesKey, id).Err(); err != nil {
		return fmt.Errorf("failed to deindex game: %w", err)
	}

	return nil
}

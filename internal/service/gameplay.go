package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crosszero/tictactoe/internal/apperror"
	"github.com/crosszero/tictactoe/internal/entity"
)

type GamePlayService interface {
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	CreateOrJoinPublicGame(ctx context.Context, playerID string) (*entity.Game, error)

	GetOrCreateGame(ctx context.Context, player *entity.Player, gameType, difficulty string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error)
	EndGame(ctx context.Context, game *entity.Game) error
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService

	defaultDifficulty string
}

func NewGamePlayService(logger *slog.Logger, playerService PlayerService, gameService GameService, botService BotService, defaultDifficulty string) GamePlayService {
	return &gamePlayService{
		logger:            logger,
		playerService:     playerService,
		gameService:       gameService,
		botService:        botService,
		defaultDifficulty: defaultDifficulty,
	}
}

func (that *gamePlayService) MakeTurn(ctx context.Context, playerID string, cell int) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return game, err
	}

	if err = game.MakeTurn(player.Mark, cell); err != nil {
		return game, fmt.Errorf("failed to make turn: %w", err)
	}

	if game.IsWithBot() && !game.IsFinished() {
		if err = that.botService.MakeTurn(game); err != nil {
			return nil, fmt.Errorf("bot failed to make turn: %w", err)
		}
	}

	if err = that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return that.joinGame(ctx, game, player)
}

// CreateOrJoinPublicGame pairs the player with a waiting public game, or
// leaves a fresh one in the matchmaking queue when none is waiting.
func (that *gamePlayService) CreateOrJoinPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		if err != nil {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}

		return game, nil
	}

	game, err := that.gameService.GetWaitingPublicGame(ctx)
	if errors.Is(err, apperror.ErrNoWaitingGames) {
		return that.createGame(ctx, player, entity.PublicType, "")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get waiting public game: %w", err)
	}

	return that.joinGame(ctx, game, player)
}

func (that *gamePlayService) joinGame(ctx context.Context, game *entity.Game, player *entity.Player) (*entity.Game, error) {
	if player.GameID == game.ID {
		return game, nil
	}

	if len(game.Players) >= 2 {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameIsFull, game.ID)
	}

	player.GameID = game.ID
	player.Mark = entity.PlayerO
	if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	game.Status = entity.StatusOngoing
	game.Players = append(game.Players, player)
	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) GetOrCreateGame(ctx context.Context, player *entity.Player, gameType, difficulty string) (*entity.Game, error) {
	if player.GameID == "" {
		game, err := that.createGame(ctx, player, gameType, difficulty)
		if err != nil {
			return nil, fmt.Errorf("failed to create new game: %w", err)
		}

		return game, nil
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrNoActiveGames
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) createGame(ctx context.Context, player *entity.Player, gameType, difficulty string) (*entity.Game, error) {
	if gameType == entity.WithBotType && difficulty == "" {
		difficulty = that.defaultDifficulty
	}

	game, updatedPlayer, err := that.gameService.CreateGame(ctx, player, gameType, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, updatedPlayer); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if game.IsWithBot() {
		err = that.addBotToGame(ctx, game)
		if err != nil {
			return nil, fmt.Errorf("failed to add bot to game: %w", err)
		}
	}

	return game, nil
}

func (that *gamePlayService) addBotToGame(ctx context.Context, game *entity.Game) error {
	botPlayer := entity.NewBotPlayer(game.ID, "")

	game.Players = append(game.Players, botPlayer)
	game.Status = entity.StatusOngoing

	playerMark, botMark := game.GetRandomMarks()
	for _, player := range game.Players {
		if !player.IsBot() {
			player.Mark = playerMark
			if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
				return fmt.Errorf("failed to update player: %w", err)
			}
		}
	}
	botPlayer.Mark = botMark

	if err := that.playerService.UpdatePlayer(ctx, botPlayer); err != nil {
		return fmt.Errorf("failed to update bot player: %w", err)
	}

	if botMark == entity.PlayerX {
		if err := that.botService.MakeTurn(game); err != nil {
			return fmt.Errorf("bot failed to make first turn: %w", err)
		}
	}

	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("failed to update game with bot: %w", err)
	}

	return nil
}

// EndGame deletes the game and detaches its players so they can start a new one.
func (that *gamePlayService) EndGame(ctx context.Context, game *entity.Game) error {
	log := that.logger.With("method", "EndGame", "gameID", game.ID)

	if err := that.gameService.DeleteGame(ctx, game.ID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	for _, player := range game.Players {
		oldMark := player.Mark
		player.GameID = ""
		player.Mark = ""
		if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
			log.Error("failed to update", "player", player.ID, "error", err)
		}
		player.Mark = oldMark
	}

	return nil
}

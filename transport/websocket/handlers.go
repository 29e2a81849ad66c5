package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crosszero/tictactoe/internal/apperror"
	"github.com/crosszero/tictactoe/internal/entity"
)

const payloadActionGameLeave = "game:leave"

func (that *Server) handleConnect(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Player is required")
	}

	player, err := that.players.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get", "player", err)

		return that.sendErrorResponse(c, msg.Action, "failed to create a new player")
	}

	that.registerConnection(player.ID, c)
	that.playerReconnected(player.ID)

	if player.GameID != "" {
		return that.handleExistingGame(ctx, c, msg, player)
	}

	payloadResp := Payload{
		Player: player,
	}

	if err = that.sendMessage(c, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player")

	return nil
}

// handleExistingGame processes a player already in a game.
func (that *Server) handleExistingGame(ctx context.Context, c *conn, msg *Message, player *entity.Player) error {
	log := that.logger.With("method", "handleExistingGame")

	game, err := that.gamePlay.GetGameByPlayerID(ctx, player.ID)
	if err != nil {
		log.Error("failed to get game", "gameID", player.GameID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to get the game")
	}

	payload := Payload{
		Player: player,
		Game:   maskGameDetails(game),
	}

	return that.sendMessage(c, msg.Action, payload)
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleNewGame")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Game is required")
	}

	that.registerConnection(payloadReq.Player.ID, c)

	var game *entity.Game
	var err error

	if payloadReq.Game.IsPublic() {
		game, err = that.gamePlay.CreateOrJoinPublicGame(ctx, payloadReq.Player.ID)
		if err != nil {
			log.Error("failed to create or join to public game", "error", err)
			return that.sendErrorResponse(c, msg.Action, "failed to create or join to public game")
		}
	}

	if !payloadReq.Game.IsPublic() {
		player, playerErr := that.players.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
		if playerErr != nil {
			log.Error("failed to get player", "error", playerErr)
			return that.sendErrorResponse(c, msg.Action, "failed to get player")
		}

		game, err = that.gamePlay.GetOrCreateGame(ctx, player, payloadReq.Game.Type, payloadReq.Game.Difficulty)
		if err != nil {
			log.Error("failed to create or get game", "error", err)
			return that.sendErrorResponse(c, msg.Action, "failed to create a new game")
		}
	}

	log = log.With("gameID", game.ID)

	that.broadcastGameUpdate(msg.Action, game)

	log.Info("game created or resumed")

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleJoinGame")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Player is required")
	}

	if payloadReq.Game == nil {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Game is required")
	}

	that.registerConnection(payloadReq.Player.ID, c)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gamePlay.JoinGameByID(ctx, payloadReq.Game.ID, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to join game", "error", err)
		return that.sendErrorResponse(c, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
	}

	log = log.With("gameID", game.ID)

	that.broadcastGameUpdate(msg.Action, game)

	log.Info("Player joined game")

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameTurn")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Player is required")
	}

	if payloadReq.Cell == nil {
		log.Error("Cell is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Cell is required")
	}

	that.registerConnection(payloadReq.Player.ID, c)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gamePlay.MakeTurn(ctx, payloadReq.Player.ID, *payloadReq.Cell)

	switch {
	case errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, entity.ErrInvalidCell):
		return that.sendErrorResponse(c, msg.Action, fmt.Sprintf("game %s: %v", game.ID, err))
	case err != nil:
		log.Error("failed to make turn", "error", err)
		return that.sendErrorResponse(c, msg.Action, fmt.Sprintf("failed to turn in game %v", err))
	}

	log = log.With("gameID", game.ID)

	that.broadcastGameUpdate(msg.Action, game)

	if game.IsFinished() {
		log.Info("Game finished", "winner", game.Winner)
		return nil
	}

	log.Info("Player made a turn")

	return nil
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameLeave")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "Player is required")
	}

	that.registerConnection(payloadReq.Player.ID, c)

	game, err := that.gamePlay.GetGameByPlayerID(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to find game", "error", err)
		return that.sendErrorResponse(c, msg.Action, "game doesn't exist")
	}

	if err = that.gamePlay.EndGame(ctx, game); err != nil {
		log.Error("failed to end game", "error", err)
		return that.sendErrorResponse(c, msg.Action, "game doesn't exist")
	}

	game.Status = entity.StatusLeave
	that.broadcastGameUpdate(payloadActionGameLeave, game)

	log.Info("Player leaving")

	return nil
}

// broadcastGameUpdate fans the game state out to every connected human player.
func (that *Server) broadcastGameUpdate(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcastGameUpdate", "gameID", game.ID)

	players := game.Players

	for _, player := range players {
		if player.IsBot() {
			continue
		}

		that.connectionsMutex.RLock()
		playerConn, ok := that.connections[player.ID]
		that.connectionsMutex.RUnlock()

		if !ok {
			log.Warn("connection not found for player", "playerID", player.ID)
			continue
		}

		payloadResp := Payload{
			Player: player,
			Game:   maskGameDetails(game),
		}

		if err := that.sendMessage(playerConn, action, payloadResp); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}

func (that *Server) registerConnection(playerID string, c *conn) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = c
	that.connectionsMutex.Unlock()
}

func (that *Server) handleDisconnect(c *conn) {
	log := that.logger.With("method", "handleDisconnect")

	that.connectionsMutex.Lock()
	var disconnectedPlayerID string
	for playerID, connection := range that.connections {
		if connection == c {
			disconnectedPlayerID = playerID
			break
		}
	}

	if disconnectedPlayerID == "" {
		that.connectionsMutex.Unlock()
		return
	}

	delete(that.connections, disconnectedPlayerID)
	log.Info("player disconnected", "playerID", disconnectedPlayerID)
	that.connectionsMutex.Unlock()

	that.disconnectedMutex.Lock()
	that.disconnectedPlayers[disconnectedPlayerID] = time.Now()
	that.disconnectedMutex.Unlock()
}

// handleOpponentOut ends the game of a player whose disconnect grace period
// expired and tells the remaining opponent.
func (that *Server) handleOpponentOut(ctx context.Context, playerID string) {
	log := that.logger.With("method", "handleOpponentOut")

	game, err := that.gamePlay.GetGameByPlayerID(ctx, playerID)
	if errors.Is(err, apperror.ErrNoActiveGames) {
		return
	}

	if err != nil {
		log.Error("failed to get game by player ID", "playerID", playerID, "error", err)
		return
	}

	if err = that.gamePlay.EndGame(ctx, game); err != nil {
		log.Error("failed to finish game", "gameID", game.ID, "error", err)
		return
	}

	for _, player := range game.Players {
		if player.ID == playerID || player.IsBot() {
			continue
		}

		that.connectionsMutex.RLock()
		opponentConn, ok := that.connections[player.ID]
		that.connectionsMutex.RUnlock()

		if !ok {
			log.Warn("opponent connection not found", "playerID", player.ID)
			continue
		}

		payloadResp := Payload{
			Game: maskGameDetails(game),
		}
		payloadResp.Game.Status = entity.StatusOpponentOut

		if err = that.sendMessage(opponentConn, payloadActionGameLeave, payloadResp); err != nil {
			log.Error("failed to send game:leave message", "playerID", player.ID, "error", err)
		}
	}

	log.Info("handled opponent out", "gameID", game.ID)
}

func (that *Server) playerReconnected(playerID string) {
	that.disconnectedMutex.Lock()
	defer that.disconnectedMutex.Unlock()
	delete(that.disconnectedPlayers, playerID)
}

// maskGameDetails hides the opponent roster from the game payload.
func maskGameDetails(game *entity.Game) *entity.Game {
	masked := *game
	masked.Players = nil
	masked.Type = ""
	return &masked
}

func (that *Server) sendErrorResponse(c *conn, action, errorMsg string) error {
	payload := Payload{Error: errorMsg}
	if err := that.sendMessage(c, action, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

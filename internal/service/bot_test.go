package service

import (
	"testing"

	"github.com/crosszero/tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBotGame(difficulty string) *entity.Game {
	game := entity.NewGame("123", entity.WithBotType)
	game.Status = entity.StatusOngoing
	game.Difficulty = difficulty

	return game
}

func TestBotService_ChooseCell(t *testing.T) {
	botService := NewBotService()

	t.Run("Returns error when the board is full", func(t *testing.T) {
		// Given: a game with no free cells
		game := newBotGame(entity.DifficultyEasy)
		game.Board = [9]string{
			entity.PlayerX, entity.PlayerO, entity.PlayerX,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
		}

		// When: the bot chooses a cell
		_, err := botService.ChooseCell(game, entity.PlayerX)

		// Then: it should return ErrNoAvailableMoves
		assert.ErrorIs(t, err, ErrNoAvailableMoves)
	})

	t.Run("Returns error for unknown difficulty", func(t *testing.T) {
		// Given: a game with an unsupported difficulty
		game := newBotGame("impossible")

		// When: the bot chooses a cell
		_, err := botService.ChooseCell(game, entity.PlayerX)

		// Then: it should return ErrUnknownDifficulty
		assert.ErrorIs(t, err, ErrUnknownDifficulty)
	})

	t.Run("Easy bot picks a free cell", func(t *testing.T) {
		// Given: a partially played game on easy difficulty
		game := newBotGame(entity.DifficultyEasy)
		game.Board = [9]string{
			entity.PlayerX, entity.EmptyCell, entity.PlayerO,
			entity.EmptyCell, entity.PlayerX, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell several times
		for i := 0; i < 20; i++ {
			cell, err := botService.ChooseCell(game, entity.PlayerO)

			// Then: the chosen cell is always empty
			require.NoError(t, err)
			assert.Equal(t, entity.EmptyCell, game.Board[cell])
		}
	})

	t.Run("Empty difficulty falls back to a random free cell", func(t *testing.T) {
		// Given: a game created without an explicit difficulty
		game := newBotGame("")

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerX)

		// Then: the chosen cell is on the board and empty
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cell, 0)
		assert.Less(t, cell, 9)
	})
}

func TestBotService_ChooseCell_Medium(t *testing.T) {
	botService := NewBotService()

	t.Run("Takes a winning cell when available", func(t *testing.T) {
		// Given: the bot (O) has two in a row on the top line
		game := newBotGame(entity.DifficultyMedium)
		game.Board = [9]string{
			entity.PlayerO, entity.PlayerO, entity.EmptyCell,
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerO)

		// Then: it should complete its own line instead of blocking
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Blocks the opponent's winning cell", func(t *testing.T) {
		// Given: the opponent (X) threatens the left column
		game := newBotGame(entity.DifficultyMedium)
		game.Board = [9]string{
			entity.PlayerX, entity.EmptyCell, entity.EmptyCell,
			entity.PlayerX, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerO)

		// Then: it should block cell 6
		require.NoError(t, err)
		assert.Equal(t, 6, cell)
	})

	t.Run("Takes the center when no line is in danger", func(t *testing.T) {
		// Given: only a corner is occupied
		game := newBotGame(entity.DifficultyMedium)
		game.Board = [9]string{
			entity.PlayerX, entity.EmptyCell, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerO)

		// Then: it should take the center
		require.NoError(t, err)
		assert.Equal(t, 4, cell)
	})

	t.Run("Prefers a corner when the center is taken", func(t *testing.T) {
		// Given: the center is occupied and no line is in danger
		game := newBotGame(entity.DifficultyMedium)
		game.Board = [9]string{
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
			entity.EmptyCell, entity.PlayerX, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerO)

		// Then: it should pick one of the corners
		require.NoError(t, err)
		assert.Contains(t, []int{0, 2, 6, 8}, cell)
	})
}

func TestBotService_ChooseCell_Hard(t *testing.T) {
	botService := NewBotService()

	t.Run("Takes the immediate win", func(t *testing.T) {
		// Given: the bot (X) can win on the middle row
		game := newBotGame(entity.DifficultyHard)
		game.Board = [9]string{
			entity.PlayerO, entity.PlayerO, entity.EmptyCell,
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerX)

		// Then: it should take the winning cell
		require.NoError(t, err)
		assert.Equal(t, 5, cell)
	})

	t.Run("Blocks the opponent's win", func(t *testing.T) {
		// Given: the opponent (X) threatens the top line
		game := newBotGame(entity.DifficultyHard)
		game.Board = [9]string{
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.EmptyCell, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerO)

		// Then: it should block cell 2
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Defends against the corner fork", func(t *testing.T) {
		// Given: X holds two opposite corners and O holds the center
		game := newBotGame(entity.DifficultyHard)
		game.Board = [9]string{
			entity.PlayerX, entity.EmptyCell, entity.EmptyCell,
			entity.EmptyCell, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.PlayerX,
		}

		// When: the bot chooses a cell
		cell, err := botService.ChooseCell(game, entity.PlayerO)

		// Then: it must answer with an edge, a corner reply loses to the fork
		require.NoError(t, err)
		assert.Contains(t, []int{1, 3, 5, 7}, cell)
	})

	t.Run("Two hard bots always play to a draw", func(t *testing.T) {
		// Given: a fresh game where both sides use the full search
		game := newBotGame(entity.DifficultyHard)

		// When: the bots alternate until the game ends
		for !game.IsFinished() {
			cell, err := botService.ChooseCell(game, game.Turn)
			require.NoError(t, err)

			require.NoError(t, game.MakeTurn(game.Turn, cell))
		}

		// Then: perfect play from both sides is a tie
		assert.Equal(t, entity.PlayerTie, game.Winner)
	})
}

func TestBotService_MakeTurn(t *testing.T) {
	botService := NewBotService()

	t.Run("Returns error when the game has no bot", func(t *testing.T) {
		// Given: a game with only human players
		game := newBotGame(entity.DifficultyEasy)
		game.Players = []*entity.Player{{ID: "session-abc", Mark: entity.PlayerX}}

		// When: the bot service is asked to move
		err := botService.MakeTurn(game)

		// Then: it should return ErrBotNotFound
		assert.ErrorIs(t, err, ErrBotNotFound)
	})

	t.Run("Bot places its mark and passes the turn", func(t *testing.T) {
		// Given: a game where the bot plays O and it's O's turn
		game := newBotGame(entity.DifficultyEasy)
		game.Players = []*entity.Player{
			{ID: "session-abc", Mark: entity.PlayerX, GameID: game.ID},
			entity.NewBotPlayer(game.ID, entity.PlayerO),
		}
		require.NoError(t, game.MakeTurn(entity.PlayerX, 0))

		// When: the bot makes its turn
		err := botService.MakeTurn(game)

		// Then: exactly one O appears on the board and the turn returns to X
		require.NoError(t, err)

		var botMarks int
		for _, cell := range game.Board {
			if cell == entity.PlayerO {
				botMarks++
			}
		}
		assert.Equal(t, 1, botMarks)
		assert.Equal(t, entity.PlayerX, game.Turn)
	})
}

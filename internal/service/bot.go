package service

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/crosszero/tictactoe/internal/entity"
)

var (
	ErrBotNotFound       = errors.New("bot player not found")
	ErrNoAvailableMoves  = errors.New("no available moves")
	ErrUnknownDifficulty = errors.New("unknown bot difficulty")
)

// winScore is the base minimax score for a win; depth is subtracted so the
// bot prefers faster wins and slower losses.
const winScore = 10

type BotService interface {
	MakeTurn(game *entity.Game) error
	ChooseCell(game *entity.Game, mark string) (int, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

func (that *botService) MakeTurn(game *entity.Game) error {
	var botPlayer *entity.Player
	for _, player := range game.Players {
		if player.IsBot() {
			botPlayer = player
			break
		}
	}

	if botPlayer == nil {
		return ErrBotNotFound
	}

	chosenCell, err := that.ChooseCell(game, botPlayer.Mark)
	if err != nil {
		return fmt.Errorf("bot failed to choose cell: %w", err)
	}

	if err = game.MakeTurn(botPlayer.Mark, chosenCell); err != nil {
		return fmt.Errorf("bot failed to make turn: %w", err)
	}

	return nil
}

// ChooseCell picks a cell for the given mark using the game's difficulty.
// An empty difficulty falls back to easy, matching games created before
// difficulties existed.
func (that *botService) ChooseCell(game *entity.Game, mark string) (int, error) {
	availableCells := game.AvailableCells()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	switch game.Difficulty {
	case entity.DifficultyEasy, "":
		return chooseRandomCell(availableCells), nil
	case entity.DifficultyMedium:
		return chooseTacticalCell(game.Board, mark, availableCells), nil
	case entity.DifficultyHard:
		return chooseMinimaxCell(game.Board, mark), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownDifficulty, game.Difficulty)
	}
}

func chooseRandomCell(availableCells []int) int {
	return availableCells[rand.Intn(len(availableCells))] //nolint: gosec // it's ok
}

// chooseTacticalCell plays by fixed priorities: win now, block the opponent's
// win, take the center, take a corner, otherwise a random cell.
func chooseTacticalCell(board [9]string, mark string, availableCells []int) int {
	if cell, ok := findWinningCell(board, mark); ok {
		return cell
	}

	if cell, ok := findWinningCell(board, entity.ToggleMark(mark)); ok {
		return cell
	}

	const center = 4
	if board[center] == entity.EmptyCell {
		return center
	}

	corners := []int{0, 2, 6, 8}
	rand.Shuffle(len(corners), func(i, j int) { corners[i], corners[j] = corners[j], corners[i] }) //nolint: gosec // it's ok
	for _, corner := range corners {
		if board[corner] == entity.EmptyCell {
			return corner
		}
	}

	return chooseRandomCell(availableCells)
}

// findWinningCell returns a cell that completes a line for the given mark.
func findWinningCell(board [9]string, mark string) (int, bool) {
	for _, combo := range entity.WinCombos {
		var empty, owned int
		emptyCell := -1

		for _, idx := range combo {
			switch board[idx] {
			case mark:
				owned++
			case entity.EmptyCell:
				empty++
				emptyCell = idx
			}
		}

		if owned == 2 && empty == 1 {
			return emptyCell, true
		}
	}

	return 0, false
}

// chooseMinimaxCell searches the full game tree. On a 9-cell board the tree
// is small enough that no pruning is needed.
func chooseMinimaxCell(board [9]string, mark string) int {
	bestScore := -winScore * 2
	bestCell := -1

	for i, cell := range board {
		if cell != entity.EmptyCell {
			continue
		}

		board[i] = mark
		score := minimax(board, entity.ToggleMark(mark), mark, 1)
		board[i] = entity.EmptyCell

		if score > bestScore {
			bestScore = score
			bestCell = i
		}
	}

	return bestCell
}

func minimax(board [9]string, turn, botMark string, depth int) int {
	switch winner := lineWinner(board); winner {
	case botMark:
		return winScore - depth
	case entity.EmptyCell:
		// no line yet, keep searching
	default:
		return depth - winScore
	}

	if boardFull(board) {
		return 0
	}

	maximizing := turn == botMark
	best := winScore * 2
	if maximizing {
		best = -winScore * 2
	}

	for i, cell := range board {
		if cell != entity.EmptyCell {
			continue
		}

		board[i] = turn
		score := minimax(board, entity.ToggleMark(turn), botMark, depth+1)
		board[i] = entity.EmptyCell

		if maximizing && score > best {
			best = score
		}
		if !maximizing && score < best {
			best = score
		}
	}

	return best
}

func lineWinner(board [9]string) string {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	return entity.EmptyCell
}

func boardFull(board [9]string) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return true
}

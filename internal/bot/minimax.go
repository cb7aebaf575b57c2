package bot

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"

	"golang.org/x/sync/errgroup"
)

// ChooseMove returns the optimal move for the side to move, assuming both
// sides play perfectly afterwards. X maximises the utility and O minimises
// it. Among equally good moves the first one in LegalMoves order is kept.
// ok is false when the board is already terminal.
func ChooseMove(board game.Board) (move game.Move, ok bool, err error) {
	if board.IsTerminal() {
		return game.Move{}, false, nil
	}

	maximizing := board.PlayerToMove() == game.PlayerX
	var best int
	for i, m := range board.LegalMoves() {
		score, err := scoreChild(board, m, maximizing)
		if err != nil {
			return game.Move{}, false, err
		}
		if i == 0 || better(score, best, maximizing) {
			best, move = score, m
		}
	}
	return move, true, nil
}

// ChooseMoveParallel is ChooseMove with the top-level moves scored
// concurrently. It returns the same move as ChooseMove.
func ChooseMoveParallel(ctx context.Context, board game.Board) (game.Move, bool, error) {
	if board.IsTerminal() {
		return game.Move{}, false, nil
	}

	maximizing := board.PlayerToMove() == game.PlayerX
	moves := board.LegalMoves()
	scores := make([]int, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := scoreChild(board, m, maximizing)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return game.Move{}, false, err
	}

	best := 0
	for i := 1; i < len(moves); i++ {
		if better(scores[i], scores[best], maximizing) {
			best = i
		}
	}
	return moves[best], true, nil
}

// MaxValue is the game value of board when X is to move.
func MaxValue(board game.Board) (int, error) {
	if board.IsTerminal() {
		return board.Utility()
	}

	v := -2
	for _, m := range board.LegalMoves() {
		next, err := board.ApplyMove(m)
		if err != nil {
			return 0, err
		}
		score, err := MinValue(next)
		if err != nil {
			return 0, err
		}
		v = max(v, score)
	}
	return v, nil
}

// MinValue is the game value of board when O is to move.
func MinValue(board game.Board) (int, error) {
	if board.IsTerminal() {
		return board.Utility()
	}

	v := 2
	for _, m := range board.LegalMoves() {
		next, err := board.ApplyMove(m)
		if err != nil {
			return 0, err
		}
		score, err := MaxValue(next)
		if err != nil {
			return 0, err
		}
		v = min(v, score)
	}
	return v, nil
}

// Value is the game value of board under perfect play by both sides.
func Value(board game.Board) (int, error) {
	if board.PlayerToMove() == game.PlayerX {
		return MaxValue(board)
	}
	return MinValue(board)
}

// scoreChild applies m and evaluates the result from the opponent's turn.
func scoreChild(board game.Board, m game.Move, maximizing bool) (int, error) {
	next, err := board.ApplyMove(m)
	if err != nil {
		return 0, err
	}
	if maximizing {
		return MinValue(next)
	}
	return MaxValue(next)
}

func better(score, best int, maximizing bool) bool {
	if maximizing {
		return score > best
	}
	return score < best
}

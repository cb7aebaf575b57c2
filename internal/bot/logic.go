package bot

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"fmt"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Difficulty selects how the computer picks its moves.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// parallelThreshold is the number of empty cells from which hard moves are
// searched with ChooseMoveParallel.
const parallelThreshold = 7

var (
	tracer = otel.Tracer("bot")
	meter  = otel.Meter("bot")
)

// ParseDifficulty maps unknown or empty values to Hard.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Easy, Medium:
		return Difficulty(s)
	}
	return Hard
}

// Engine implements the session.MoveCalculator interface.
type Engine struct {
	moves    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewEngine creates an Engine reporting to the global meter provider.
func NewEngine() (*Engine, error) {
	moves, err := meter.Int64Counter("bot.moves",
		metric.WithDescription("Moves chosen by the computer player"))
	if err != nil {
		return nil, fmt.Errorf("failed to create bot.moves counter: %w", err)
	}
	duration, err := meter.Float64Histogram("bot.move.duration",
		metric.WithDescription("Time spent choosing a move"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create bot.move.duration histogram: %w", err)
	}
	return &Engine{moves: moves, duration: duration}, nil
}

// CalculateNextMove picks a move for the side to move on board. ok is false
// when the board is terminal.
func (e *Engine) CalculateNextMove(ctx context.Context, board game.Board, difficulty Difficulty) (move game.Move, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "bot.CalculateNextMove", trace.WithAttributes(
		attribute.String("bot.difficulty", string(difficulty)),
		attribute.String("bot.mark", board.PlayerToMove().String()),
		attribute.Int("board.empty", board.Count(game.Empty)),
	))
	defer span.End()

	start := time.Now()
	move, ok, err = CalculateNextMove(ctx, board, difficulty)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to calculate move")
		return game.Move{}, false, err
	}

	attrs := metric.WithAttributes(attribute.String("bot.difficulty", string(difficulty)))
	e.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if ok {
		e.moves.Add(ctx, 1, attrs)
		span.SetAttributes(attribute.Int("move.row", move.Row), attribute.Int("move.col", move.Col))
	}
	return move, ok, nil
}

// CalculateNextMove determines the next move based on the specified difficulty.
func CalculateNextMove(ctx context.Context, board game.Board, difficulty Difficulty) (game.Move, bool, error) {
	switch difficulty {
	case Easy:
		m, ok := easyMove(board)
		return m, ok, nil
	case Medium:
		m, ok := mediumMove(board)
		return m, ok, nil
	default:
		return hardMove(ctx, board)
	}
}

// easyMove makes a completely random move.
func easyMove(board game.Board) (game.Move, bool) {
	if board.IsTerminal() {
		return game.Move{}, false
	}
	moves := board.LegalMoves()
	return moves[rand.IntN(len(moves))], true
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board) (game.Move, bool) {
	if board.IsTerminal() {
		return game.Move{}, false
	}
	mark := board.PlayerToMove()

	if m, found := findWinningMove(board, mark); found {
		return m, true
	}
	if m, found := findWinningMove(board, game.Opponent(mark)); found {
		return m, true
	}
	return easyMove(board)
}

// hardMove plays perfectly.
func hardMove(ctx context.Context, board game.Board) (game.Move, bool, error) {
	if board.Count(game.Empty) >= parallelThreshold {
		return ChooseMoveParallel(ctx, board)
	}
	return ChooseMove(board)
}

// findWinningMove returns an empty cell that would complete a line for mark.
func findWinningMove(board game.Board, mark game.PlayerMark) (game.Move, bool) {
	for _, m := range board.LegalMoves() {
		next := board
		next[m.Row][m.Col] = mark
		if winner, ok := next.Winner(); ok && winner == mark {
			return m, true
		}
	}
	return game.Move{}, false
}

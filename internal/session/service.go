package session

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/events"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/repository"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("session")
	meter  = otel.Meter("session")
)

var (
	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrInvalidBoard = errors.New("board is not reachable by legal play")
)

// MoveCalculator defines an interface for an agent that can calculate a game move.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board game.Board, difficulty bot.Difficulty) (game.Move, bool, error)
}

// NewGameParams describes a game to start.
type NewGameParams struct {
	HumanMark  game.PlayerMark
	Difficulty bot.Difficulty
	PlayerName string
}

// Solution is the analysis of a single board.
type Solution struct {
	Board  game.Board      `json:"board"`
	Next   game.PlayerMark `json:"next"`
	Result game.GameResult `json:"result"`
	Value  int             `json:"value"`
	Move   *game.Move      `json:"move,omitempty"`
}

// Service plays human-versus-computer games.
type Service struct {
	games     repository.GameRepository
	publisher events.Publisher
	engine    MoveCalculator
	now       func() time.Time
	finished  metric.Int64Counter
}

// NewService creates a Service.
func NewService(games repository.GameRepository, publisher events.Publisher, engine MoveCalculator) (*Service, error) {
	finished, err := meter.Int64Counter("session.games.finished",
		metric.WithDescription("Games that reached a terminal board"))
	if err != nil {
		return nil, fmt.Errorf("failed to create session.games.finished counter: %w", err)
	}
	return &Service{
		games:     games,
		publisher: publisher,
		engine:    engine,
		now:       time.Now,
		finished:  finished,
	}, nil
}

// NewGame starts a game. When the human plays O the computer opens.
func (s *Service) NewGame(ctx context.Context, params NewGameParams) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "session.NewGame", trace.WithAttributes(
		attribute.String("game.human_mark", params.HumanMark.String()),
		attribute.String("game.difficulty", string(params.Difficulty)),
	))
	defer span.End()

	if params.HumanMark != game.PlayerX && params.HumanMark != game.PlayerO {
		return nil, fmt.Errorf("%w: human must play X or O", game.ErrInvalidMark)
	}
	if params.PlayerName == "" {
		params.PlayerName = "guest"
	}

	state := &game.GameStateDTO{
		ID:         uuid.New().String(),
		Board:      game.InitialState(),
		HumanMark:  params.HumanMark,
		Difficulty: string(params.Difficulty),
		PlayerName: params.PlayerName,
		History:    []game.Move{},
		CreatedAt:  s.now().UTC(),
	}
	span.SetAttributes(attribute.String("game.id", state.ID))

	if state.ComputerMark() == game.PlayerX {
		if err := s.computerTurn(ctx, state); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Computer failed to open")
			return nil, err
		}
	}

	if err := s.games.Create(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store new game")
		return nil, err
	}

	slog.InfoContext(ctx, "New game started", "game.id", state.ID, "player.name", state.PlayerName, "game.human_mark", state.HumanMark.String())
	return state, nil
}

// Get returns the stored game.
func (s *Service) Get(ctx context.Context, id string) (*game.GameStateDTO, error) {
	return s.games.FindByID(ctx, id)
}

// Play applies the human's move and, if the game goes on, the computer's
// reply. A rejected move leaves the stored game unchanged.
func (s *Service) Play(ctx context.Context, id string, move game.Move) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "session.Play", trace.WithAttributes(
		attribute.String("game.id", id),
		attribute.Int("move.row", move.Row),
		attribute.Int("move.col", move.Col),
	))
	defer span.End()

	state, err := s.games.Update(ctx, id, func(state *game.GameStateDTO) error {
		if state.Board.IsTerminal() {
			return ErrGameFinished
		}
		if state.Board.PlayerToMove() != state.HumanMark {
			return ErrNotYourTurn
		}
		if err := state.Apply(move); err != nil {
			return err
		}
		if state.Board.IsTerminal() {
			return nil
		}
		return s.computerTurn(ctx, state)
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Move rejected")
		slog.WarnContext(ctx, "Move rejected", "game.id", id, "move", move.String(), "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	if state.Board.IsTerminal() {
		s.finish(ctx, state)
	}
	return state, nil
}

// Hint returns the optimal move for the human.
func (s *Service) Hint(ctx context.Context, id string) (game.Move, error) {
	ctx, span := tracer.Start(ctx, "session.Hint", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	state, err := s.games.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		return game.Move{}, err
	}
	if state.Board.IsTerminal() {
		return game.Move{}, ErrGameFinished
	}
	if state.Board.PlayerToMove() != state.HumanMark {
		return game.Move{}, ErrNotYourTurn
	}

	move, _, err := bot.ChooseMove(state.Board)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return game.Move{}, err
	}
	return move, nil
}

// Solve analyses a board without storing anything.
func (s *Service) Solve(ctx context.Context, board game.Board) (*Solution, error) {
	_, span := tracer.Start(ctx, "session.Solve", trace.WithAttributes(
		attribute.Int("board.empty", board.Count(game.Empty)),
	))
	defer span.End()

	if !board.IsReachable() {
		span.SetStatus(codes.Error, "Unreachable board")
		return nil, ErrInvalidBoard
	}

	value, err := bot.Value(board)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}

	solution := &Solution{Board: board, Result: board.Result(), Value: value}
	move, ok, err := bot.ChooseMove(board)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}
	if ok {
		solution.Next = board.PlayerToMove()
		solution.Move = &move
	}
	return solution, nil
}

func (s *Service) computerTurn(ctx context.Context, state *game.GameStateDTO) error {
	move, ok, err := s.engine.CalculateNextMove(ctx, state.Board, bot.ParseDifficulty(state.Difficulty))
	if err != nil {
		return fmt.Errorf("failed to calculate computer move: %w", err)
	}
	if !ok {
		return nil
	}
	return state.Apply(move)
}

// finish reports a terminal game. Failing to publish does not fail the move.
func (s *Service) finish(ctx context.Context, state *game.GameStateDTO) {
	result := state.HumanResult()
	s.finished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.result", result),
		attribute.String("game.difficulty", state.Difficulty),
	))
	slog.InfoContext(ctx, "Game finished", "game.id", state.ID, "player.name", state.PlayerName, "game.result", result)

	event, err := events.NewEvent(events.TypeGameFinished, events.GameFinishedPayload{
		GameID:     state.ID,
		Player:     state.PlayerName,
		HumanMark:  state.HumanMark.String(),
		Difficulty: state.Difficulty,
		Result:     result,
		Moves:      len(state.History),
		FinishedAt: s.now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build game_finished event", "game.id", state.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish game_finished event", "game.id", state.ID, "error", err)
	}
}

package repository

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=game_repository.go -destination=mocks/game_repository_mock.go -package=mocks

const maxUpdateRetries = 3

var tracer = otel.Tracer("repository.game")

var (
	ErrGameNotFound = errors.New("game not found")
	ErrConflict     = errors.New("game was modified concurrently")
)

// GameRepository defines the interface for game data operations.
type GameRepository interface {
	Create(ctx context.Context, state *game.GameStateDTO) error
	FindByID(ctx context.Context, id string) (*game.GameStateDTO, error)
	// Update loads the game, runs apply on it and stores the result
	// atomically. Nothing is written when apply returns an error.
	Update(ctx context.Context, id string, apply func(state *game.GameStateDTO) error) (*game.GameStateDTO, error)
	Delete(ctx context.Context, id string) error
}

type redisGameRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGameRepository creates a new Redis-based GameRepository. Stored games
// expire ttl after their last update; zero disables expiry.
func NewGameRepository(rdb *redis.Client, ttl time.Duration) GameRepository {
	return &redisGameRepository{rdb: rdb, ttl: ttl}
}

func gameKey(id string) string {
	return fmt.Sprintf("game:%s", id)
}

// Create stores a new game.
func (r *redisGameRepository) Create(ctx context.Context, state *game.GameStateDTO) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Create", trace.WithAttributes(
		attribute.String("game.id", state.ID),
	))
	defer span.End()

	fields, err := encodeState(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode game")
		return err
	}

	key := gameKey(state.ID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create game in redis")
		return fmt.Errorf("failed to create game in redis: %w", err)
	}
	return nil
}

// FindByID retrieves the current game state from Redis.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, gameKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get game from redis")
		return nil, fmt.Errorf("failed to get game state from redis: %w", err)
	}
	return decodeState(id, data)
}

// Update applies a mutation to the game inside a WATCH transaction and
// retries when another client changed the game in between.
func (r *redisGameRepository) Update(ctx context.Context, id string, apply func(state *game.GameStateDTO) error) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.Update", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	key := gameKey(id)
	var updated *game.GameStateDTO

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		state, err := decodeState(id, data)
		if err != nil {
			return err
		}
		if err := apply(state); err != nil {
			return err
		}
		fields, err := encodeState(state)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		if err != nil {
			return err
		}
		updated = state
		return nil
	}

	for attempt := 1; attempt <= maxUpdateRetries; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to update game")
			return nil, err
		}
		span.AddEvent("transaction conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}

	span.SetStatus(codes.Error, "Too many concurrent updates")
	return nil, ErrConflict
}

// Delete removes a stored game.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Delete", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	if err := r.rdb.Del(ctx, gameKey(id)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete game")
		return fmt.Errorf("failed to delete game from redis: %w", err)
	}
	return nil
}

func encodeState(state *game.GameStateDTO) (map[string]any, error) {
	boardJSON, err := json.Marshal(state.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}
	history := state.History
	if history == nil {
		history = []game.Move{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	return map[string]any{
		game.FieldBoard:      string(boardJSON),
		game.FieldHumanMark:  state.HumanMark.String(),
		game.FieldDifficulty: state.Difficulty,
		game.FieldPlayer:     state.PlayerName,
		game.FieldHistory:    string(historyJSON),
		game.FieldCreatedAt:  state.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func decodeState(id string, data map[string]string) (*game.GameStateDTO, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	state := &game.GameStateDTO{
		ID:         id,
		Difficulty: data[game.FieldDifficulty],
		PlayerName: data[game.FieldPlayer],
	}

	if err := json.Unmarshal([]byte(data[game.FieldBoard]), &state.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	if err := json.Unmarshal([]byte(data[game.FieldHistory]), &state.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	mark, err := game.ParseMark(data[game.FieldHumanMark])
	if err != nil {
		return nil, fmt.Errorf("failed to parse human mark: %w", err)
	}
	state.HumanMark = mark

	createdAt, err := time.Parse(time.RFC3339Nano, data[game.FieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("failed to parse creation time: %w", err)
	}
	state.CreatedAt = createdAt

	return state, nil
}

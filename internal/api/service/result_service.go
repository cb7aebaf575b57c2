package service

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/repository"
	"ctchen222/tictactoe-minimax/internal/events"
	"encoding/json"
	"fmt"
	"log/slog"
)

const recentResults = 10

// ResultService keeps the history of finished games.
type ResultService interface {
	// HandleEvent is an events.Handler recording game_finished events.
	HandleEvent(ctx context.Context, event events.Event) error
	Stats(ctx context.Context, player string) (*models.Stats, error)
}

type resultService struct {
	results repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(results repository.ResultRepository) ResultService {
	return &resultService{results: results}
}

func (s *resultService) HandleEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.TypeGameFinished {
		return nil
	}

	var payload events.GameFinishedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", event.Type, err)
	}

	inserted, err := s.results.Record(ctx, &models.GameResult{
		GameID:     payload.GameID,
		Player:     payload.Player,
		HumanMark:  payload.HumanMark,
		Difficulty: payload.Difficulty,
		Result:     payload.Result,
		Moves:      payload.Moves,
		FinishedAt: payload.FinishedAt,
	})
	if err != nil {
		return err
	}
	if !inserted {
		slog.DebugContext(ctx, "Game result already recorded", "game.id", payload.GameID)
		return nil
	}
	slog.InfoContext(ctx, "Game result recorded", "game.id", payload.GameID, "player.name", payload.Player, "game.result", payload.Result)
	return nil
}

func (s *resultService) Stats(ctx context.Context, player string) (*models.Stats, error) {
	return s.results.Stats(ctx, player, recentResults)
}

package repository

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/models"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=result_repository.go -destination=mocks/result_repository_mock.go -package=mocks

// ResultRepository stores finished games.
type ResultRepository interface {
	// Record stores result once per game id. It reports false when the game
	// was already recorded.
	Record(ctx context.Context, result *models.GameResult) (bool, error)
	Stats(ctx context.Context, player string, recent int) (*models.Stats, error)
}

type sqliteResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new SQLite-based ResultRepository.
func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &sqliteResultRepository{db: db}
}

func (r *sqliteResultRepository) Record(ctx context.Context, result *models.GameResult) (bool, error) {
	query := `INSERT OR IGNORE INTO game_results (game_id, player, human_mark, difficulty, result, moves, finished_at)
		VALUES (:game_id, :player, :human_mark, :difficulty, :result, :moves, :finished_at)`
	res, err := r.db.NamedExecContext(ctx, query, result)
	if err != nil {
		return false, fmt.Errorf("failed to record game result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// Stats counts the player's results and lists the most recent games first.
func (r *sqliteResultRepository) Stats(ctx context.Context, player string, recent int) (*models.Stats, error) {
	stats := &models.Stats{Player: player, Recent: []models.GameResult{}}

	countQuery := `SELECT
		COALESCE(SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END), 0) AS wins,
		COALESCE(SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END), 0) AS losses,
		COALESCE(SUM(CASE WHEN result = 'draw' THEN 1 ELSE 0 END), 0) AS draws
		FROM game_results WHERE player = ?`
	if err := r.db.GetContext(ctx, stats, countQuery, player); err != nil {
		return nil, fmt.Errorf("failed to count game results: %w", err)
	}

	if recent <= 0 {
		return stats, nil
	}
	listQuery := `SELECT id, game_id, player, human_mark, difficulty, result, moves, finished_at
		FROM game_results WHERE player = ? ORDER BY finished_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &stats.Recent, listQuery, player, recent); err != nil {
		return nil, fmt.Errorf("failed to list game results: %w", err)
	}
	return stats, nil
}

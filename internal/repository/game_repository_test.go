package repository

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/testing/suite"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(id string) *game.GameStateDTO {
	return &game.GameStateDTO{
		ID:         id,
		Board:      game.InitialState(),
		HumanMark:  game.PlayerX,
		Difficulty: "hard",
		PlayerName: "alice",
		CreatedAt:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncodeDecodeState(t *testing.T) {
	state := newState("g1")
	require.NoError(t, state.Apply(game.Move{Row: 1, Col: 1}))

	fields, err := encodeState(state)
	require.NoError(t, err)

	data := make(map[string]string, len(fields))
	for k, v := range fields {
		data[k] = v.(string)
	}

	decoded, err := decodeState("g1", data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeState_NotFound(t *testing.T) {
	_, err := decodeState("missing", map[string]string{})
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameRepository(t *testing.T) {
	ctx, st := suite.New(t)
	repo := NewGameRepository(st.Redis, time.Minute)

	t.Run("Create and FindByID", func(t *testing.T) {
		state := newState("create")
		require.NoError(t, repo.Create(ctx, state))

		got, err := repo.FindByID(ctx, "create")
		require.NoError(t, err)
		assert.Equal(t, state.Board, got.Board)
		assert.Equal(t, game.PlayerX, got.HumanMark)
		assert.Equal(t, "alice", got.PlayerName)
		assert.Empty(t, got.History)

		ttl, err := st.Redis.TTL(ctx, gameKey("create")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("FindByID on a missing game", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "nope")
		require.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("Update applies the mutation", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newState("update")))

		updated, err := repo.Update(ctx, "update", func(s *game.GameStateDTO) error {
			return s.Apply(game.Move{Row: 0, Col: 0})
		})
		require.NoError(t, err)
		assert.Equal(t, game.PlayerX, updated.Board[0][0])

		got, err := repo.FindByID(ctx, "update")
		require.NoError(t, err)
		assert.Equal(t, updated.Board, got.Board)
		assert.Equal(t, []game.Move{{Row: 0, Col: 0}}, got.History)
	})

	t.Run("Update writes nothing on error", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newState("reject")))
		errBoom := errors.New("boom")

		_, err := repo.Update(ctx, "reject", func(s *game.GameStateDTO) error {
			s.Board[2][2] = game.PlayerO
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		got, err := repo.FindByID(ctx, "reject")
		require.NoError(t, err)
		assert.Equal(t, game.InitialState(), got.Board)
	})

	t.Run("Update on a missing game", func(t *testing.T) {
		_, err := repo.Update(ctx, "ghost", func(*game.GameStateDTO) error { return nil })
		require.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("Concurrent updates do not interleave", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newState("race")))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, m := range []game.Move{{Row: 0, Col: 0}, {Row: 2, Col: 2}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.Update(context.Background(), "race", func(s *game.GameStateDTO) error {
					return s.Apply(m)
				})
			}()
		}
		wg.Wait()

		got, err := repo.FindByID(ctx, "race")
		require.NoError(t, err)

		applied := 0
		for _, err := range errs {
			if err == nil {
				applied++
			} else {
				require.ErrorIs(t, err, ErrConflict)
			}
		}
		assert.Len(t, got.History, applied)
		assert.Equal(t, applied, 9-got.Board.Count(game.Empty))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newState("delete")))
		require.NoError(t, repo.Delete(ctx, "delete"))

		_, err := repo.FindByID(ctx, "delete")
		require.ErrorIs(t, err, ErrGameNotFound)
	})
}

package bot

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseMove(t *testing.T) {
	t.Run("takes the immediate win", func(t *testing.T) {
		b := board(t, "XX./OO./...")
		require.Equal(t, game.PlayerX, b.PlayerToMove())

		m, ok, err := ChooseMove(b)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, game.Move{Row: 0, Col: 2}, m)

		next, err := b.ApplyMove(m)
		require.NoError(t, err)
		u, err := next.Utility()
		require.NoError(t, err)
		require.Equal(t, 1, u)
	})

	t.Run("O prefers winning over blocking", func(t *testing.T) {
		m, ok, err := ChooseMove(board(t, "XX./OO./X.."))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, game.Move{Row: 1, Col: 2}, m)
	})

	t.Run("O blocks the only threat", func(t *testing.T) {
		b := board(t, "XX./.O./...")
		m, ok, err := ChooseMove(b)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, game.Move{Row: 0, Col: 2}, m)

		next, err := b.ApplyMove(m)
		require.NoError(t, err)
		v, err := MaxValue(next)
		require.NoError(t, err)
		require.Equal(t, 0, v)
	})

	t.Run("terminal board has no move", func(t *testing.T) {
		for _, s := range []string{"XOX/XOO/OXX", "XXX/OO./..."} {
			_, ok, err := ChooseMove(board(t, s))
			require.NoError(t, err)
			assert.False(t, ok, s)
		}
	})

	t.Run("empty board opens on a corner or the centre", func(t *testing.T) {
		b := game.InitialState()
		m, ok, err := ChooseMove(b)
		require.NoError(t, err)
		require.True(t, ok)

		allowed := []game.Move{{Row: 0, Col: 0}, {Row: 0, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 2}, {Row: 1, Col: 1}}
		require.Contains(t, allowed, m)

		next, err := b.ApplyMove(m)
		require.NoError(t, err)
		v, err := MinValue(next)
		require.NoError(t, err)
		require.Equal(t, 0, v)
	})
}

func TestSelfPlayIsADraw(t *testing.T) {
	b := game.InitialState()
	for !b.IsTerminal() {
		m, ok, err := ChooseMove(b)
		require.NoError(t, err)
		require.True(t, ok)
		b, err = b.ApplyMove(m)
		require.NoError(t, err)
	}

	_, won := b.Winner()
	require.False(t, won, "optimal play must not produce a winner:\n%s", b)
	require.Equal(t, game.Draw, b.Result())
}

func TestOptimalPlayNeverLosesToRandom(t *testing.T) {
	for _, computer := range []game.PlayerMark{game.PlayerX, game.PlayerO} {
		for range 5 {
			b := game.InitialState()
			for !b.IsTerminal() {
				var m game.Move
				var ok bool
				var err error
				if b.PlayerToMove() == computer {
					m, ok, err = ChooseMove(b)
					require.NoError(t, err)
				} else {
					m, ok = easyMove(b)
				}
				require.True(t, ok)
				b, err = b.ApplyMove(m)
				require.NoError(t, err)
			}
			winner, won := b.Winner()
			if won {
				require.Equal(t, computer, winner, "computer %s lost:\n%s", computer, b)
			}
		}
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name  string
		board string
		want  int
	}{
		{name: "empty board is a draw", board: ".../.../...", want: 0},
		{name: "opposite corners against the centre", board: "X../.O./..X", want: 0},
		{name: "X to move and win", board: "XX./OO./...", want: 1},
		{name: "O to move and win", board: "XX./OO./X..", want: -1},
		{name: "terminal draw", board: "XOX/XOO/OXX", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Value(board(t, tt.board))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestChooseMoveParallel(t *testing.T) {
	boards := []string{
		".../.../...",
		"X../.../...",
		".../.X./...",
		"XX./OO./...",
		"XX./OO./X..",
		"X../.O./..X",
		"XOX/XOO/OXX",
	}

	for _, s := range boards {
		b := board(t, s)
		want, wantOK, err := ChooseMove(b)
		require.NoError(t, err)

		got, gotOK, err := ChooseMoveParallel(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, wantOK, gotOK, s)
		assert.Equal(t, want, got, s)
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := ChooseMoveParallel(ctx, game.InitialState())
		require.ErrorIs(t, err, context.Canceled)
	})
}

package session

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/events"
	eventmocks "ctchen222/tictactoe-minimax/internal/events/mocks"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/repository/mocks"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// firstMoveEngine always plays the first legal move.
type firstMoveEngine struct{}

func (firstMoveEngine) CalculateNextMove(_ context.Context, board game.Board, _ bot.Difficulty) (game.Move, bool, error) {
	if board.IsTerminal() {
		return game.Move{}, false, nil
	}
	return board.LegalMoves()[0], true, nil
}

type fixture struct {
	svc       *Service
	games     *mocks.MockGameRepository
	publisher *eventmocks.MockPublisher
}

func newFixture(t *testing.T, engine MoveCalculator) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	games := mocks.NewMockGameRepository(ctrl)
	publisher := eventmocks.NewMockPublisher(ctrl)

	svc, err := NewService(games, publisher, engine)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	return &fixture{svc: svc, games: games, publisher: publisher}
}

// expectUpdate makes the repository run the mutation on stored.
func (f *fixture) expectUpdate(stored *game.GameStateDTO) {
	f.games.EXPECT().
		Update(gomock.Any(), stored.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, apply func(*game.GameStateDTO) error) (*game.GameStateDTO, error) {
			working := *stored
			working.History = append([]game.Move(nil), stored.History...)
			if err := apply(&working); err != nil {
				return nil, err
			}
			*stored = working
			return &working, nil
		})
}

func stateWith(t *testing.T, id, board string, human game.PlayerMark) *game.GameStateDTO {
	t.Helper()
	b, err := game.ParseBoard(board)
	require.NoError(t, err)
	return &game.GameStateDTO{
		ID:         id,
		Board:      b,
		HumanMark:  human,
		Difficulty: string(bot.Hard),
		PlayerName: "alice",
		History:    []game.Move{},
	}
}

func TestService_NewGame(t *testing.T) {
	ctx := context.Background()

	t.Run("human plays X", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.games.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		state, err := f.svc.NewGame(ctx, NewGameParams{HumanMark: game.PlayerX, Difficulty: bot.Hard})
		require.NoError(t, err)

		assert.NotEmpty(t, state.ID)
		assert.Equal(t, game.InitialState(), state.Board)
		assert.Equal(t, "guest", state.PlayerName)
		assert.Equal(t, game.PlayerX, state.Next())
	})

	t.Run("computer opens when human plays O", func(t *testing.T) {
		engine, err := bot.NewEngine()
		require.NoError(t, err)
		f := newFixture(t, engine)
		f.games.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		state, err := f.svc.NewGame(ctx, NewGameParams{HumanMark: game.PlayerO, Difficulty: bot.Hard, PlayerName: "bob"})
		require.NoError(t, err)

		assert.Equal(t, 1, state.Board.Count(game.PlayerX))
		assert.Len(t, state.History, 1)
		assert.Equal(t, game.PlayerO, state.Next())
		assert.Equal(t, "bob", state.PlayerName)
	})

	t.Run("rejects an empty mark", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		_, err := f.svc.NewGame(ctx, NewGameParams{HumanMark: game.Empty})
		require.ErrorIs(t, err, game.ErrInvalidMark)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		errDown := errors.New("redis down")
		f.games.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errDown)

		_, err := f.svc.NewGame(ctx, NewGameParams{HumanMark: game.PlayerX})
		require.ErrorIs(t, err, errDown)
	})
}

func TestService_Play(t *testing.T) {
	ctx := context.Background()

	t.Run("human move followed by the computer reply", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		stored := stateWith(t, "g1", ".../.../...", game.PlayerX)
		f.expectUpdate(stored)

		state, err := f.svc.Play(ctx, "g1", game.Move{Row: 1, Col: 1})
		require.NoError(t, err)

		assert.Equal(t, game.PlayerX, state.Board[1][1])
		assert.Equal(t, game.PlayerO, state.Board[0][0])
		assert.Equal(t, []game.Move{{Row: 1, Col: 1}, {Row: 0, Col: 0}}, state.History)
		assert.Equal(t, game.PlayerX, state.Next())
	})

	t.Run("invalid move leaves the game untouched", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		stored := stateWith(t, "g1", "X../.O./...", game.PlayerX)
		before := *stored
		f.expectUpdate(stored)

		_, err := f.svc.Play(ctx, "g1", game.Move{Row: 0, Col: 0})
		require.ErrorIs(t, err, game.ErrInvalidMove)
		assert.Equal(t, before.Board, stored.Board)
	})

	t.Run("out of range move", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.expectUpdate(stateWith(t, "g1", ".../.../...", game.PlayerX))

		_, err := f.svc.Play(ctx, "g1", game.Move{Row: 3, Col: 0})
		require.ErrorIs(t, err, game.ErrInvalidMove)
	})

	t.Run("finished game", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.expectUpdate(stateWith(t, "g1", "XXX/OO./...", game.PlayerO))

		_, err := f.svc.Play(ctx, "g1", game.Move{Row: 2, Col: 2})
		require.ErrorIs(t, err, ErrGameFinished)
	})

	t.Run("not the human's turn", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.expectUpdate(stateWith(t, "g1", "X../.../...", game.PlayerX))

		_, err := f.svc.Play(ctx, "g1", game.Move{Row: 2, Col: 2})
		require.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("winning move publishes game_finished", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		stored := stateWith(t, "g1", "XX./OO./...", game.PlayerX)
		stored.History = []game.Move{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}}
		f.expectUpdate(stored)

		var published events.Event
		f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e events.Event) error {
				published = e
				return nil
			})

		state, err := f.svc.Play(ctx, "g1", game.Move{Row: 0, Col: 2})
		require.NoError(t, err)
		assert.Equal(t, game.XWins, state.Board.Result())
		assert.Equal(t, game.Empty, state.Next())

		require.Equal(t, events.TypeGameFinished, published.Type)
		var payload events.GameFinishedPayload
		require.NoError(t, json.Unmarshal(published.Payload, &payload))
		assert.Equal(t, "g1", payload.GameID)
		assert.Equal(t, "alice", payload.Player)
		assert.Equal(t, "win", payload.Result)
		assert.Equal(t, "X", payload.HumanMark)
		assert.Equal(t, 5, payload.Moves)
	})

	t.Run("computer reply that wins publishes a loss", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		// O (computer) completes the first row with its first legal move.
		stored := stateWith(t, "g1", ".OO/X../..X", game.PlayerX)
		f.expectUpdate(stored)

		var payload events.GameFinishedPayload
		f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e events.Event) error {
				return json.Unmarshal(e.Payload, &payload)
			})

		state, err := f.svc.Play(ctx, "g1", game.Move{Row: 2, Col: 0})
		require.NoError(t, err)
		assert.Equal(t, game.PlayerO, state.Board[0][0])
		assert.Equal(t, game.OWins, state.Board.Result())
		assert.Equal(t, "loss", payload.Result)
	})

	t.Run("publish failure does not fail the move", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.expectUpdate(stateWith(t, "g1", "XX./OO./...", game.PlayerX))
		f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		_, err := f.svc.Play(ctx, "g1", game.Move{Row: 0, Col: 2})
		require.NoError(t, err)
	})

	t.Run("missing game", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.games.EXPECT().Update(gomock.Any(), "ghost", gomock.Any()).Return(nil, repository.ErrGameNotFound)

		_, err := f.svc.Play(ctx, "ghost", game.Move{})
		require.ErrorIs(t, err, repository.ErrGameNotFound)
	})
}

func TestService_Hint(t *testing.T) {
	ctx := context.Background()

	t.Run("suggests the winning move", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.games.EXPECT().FindByID(gomock.Any(), "g1").Return(stateWith(t, "g1", "XX./OO./...", game.PlayerX), nil)

		m, err := f.svc.Hint(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, game.Move{Row: 0, Col: 2}, m)
	})

	t.Run("finished game", func(t *testing.T) {
		f := newFixture(t, firstMoveEngine{})
		f.games.EXPECT().FindByID(gomock.Any(), "g1").Return(stateWith(t, "g1", "XOX/XOO/OXX", game.PlayerX), nil)

		_, err := f.svc.Hint(ctx, "g1")
		require.ErrorIs(t, err, ErrGameFinished)
	})
}

func TestService_Solve(t *testing.T) {
	f := newFixture(t, firstMoveEngine{})
	ctx := context.Background()

	tests := []struct {
		name     string
		board    string
		wantMove *game.Move
		wantNext game.PlayerMark
		value    int
		result   game.GameResult
	}{
		{name: "immediate win", board: "XX./OO./...", wantMove: &game.Move{Row: 0, Col: 2}, wantNext: game.PlayerX, value: 1, result: game.InProgress},
		{name: "full board draw", board: "XOX/XOO/OXX", value: 0, result: game.Draw},
		{name: "won board", board: "XXX/OO./...", value: 1, result: game.XWins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := game.ParseBoard(tt.board)
			require.NoError(t, err)

			got, err := f.svc.Solve(ctx, b)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMove, got.Move)
			assert.Equal(t, tt.wantNext, got.Next)
			assert.Equal(t, tt.value, got.Value)
			assert.Equal(t, tt.result, got.Result)
		})
	}

	t.Run("unreachable board", func(t *testing.T) {
		b, err := game.ParseBoard("OO./.../...")
		require.NoError(t, err)
		_, err = f.svc.Solve(ctx, b)
		require.ErrorIs(t, err, ErrInvalidBoard)
	})
}

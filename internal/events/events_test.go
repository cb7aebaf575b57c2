package events

import (
	"context"
	"ctchen222/tictactoe-minimax/testing/suite"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(TypeGameFinished, GameFinishedPayload{GameID: "g1", Result: "draw", Moves: 9})
	require.NoError(t, err)
	require.Equal(t, TypeGameFinished, event.Type)
	require.JSONEq(t, `{"game_id":"g1","player":"","human_mark":"","difficulty":"","result":"draw","moves":9,"finished_at":"0001-01-01T00:00:00Z"}`, string(event.Payload))
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	ctx, st := suite.New(t)
	bus := NewRedisBus(st.Redis)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan Event, 1)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(subCtx, func(_ context.Context, e Event) error {
			received <- e
			return nil
		}, ready)
	}()

	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		t.Fatal("subscription was not confirmed")
	}

	event, err := NewEvent(TypeGameFinished, GameFinishedPayload{GameID: "g1", Player: "alice", Result: "win"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case got := <-received:
		require.Equal(t, TypeGameFinished, got.Type)
		require.JSONEq(t, string(event.Payload), string(got.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

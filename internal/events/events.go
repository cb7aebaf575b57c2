package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeGameFinished = "game_finished"
)

var tracer = otel.Tracer("events")

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameFinishedPayload is the payload for the "game_finished" event.
type GameFinishedPayload struct {
	GameID     string    `json:"game_id"`
	Player     string    `json:"player"`
	HumanMark  string    `json:"human_mark"`
	Difficulty string    `json:"difficulty"`
	Result     string    `json:"result"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: data}, nil
}

//go:generate mockgen -source=events.go -destination=mocks/publisher_mock.go -package=mocks

// Publisher sends events to every subscriber.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler processes one received event.
type Handler func(ctx context.Context, event Event) error

// RedisBus publishes and receives events over a Redis channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBus creates a bus on EventsChannel.
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb, channel: EventsChannel}
}

// Publish sends event on the bus channel.
func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
	))
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Subscribe delivers every event on the bus to handler until ctx is done.
// ready, if not nil, is closed once the subscription is confirmed.
func (b *RedisBus) Subscribe(ctx context.Context, handler Handler, ready chan<- struct{}) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	slog.InfoContext(ctx, "Subscribed to events channel", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg.Payload, handler)
		}
	}
}

func (b *RedisBus) dispatch(ctx context.Context, payload string, handler Handler) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal event", "error", err)
		return
	}

	ctx, span := tracer.Start(ctx, "events.Handle", trace.WithAttributes(
		attribute.String("event.type", event.Type),
	))
	defer span.End()

	if err := handler(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to handle event", "event.type", event.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to handle event")
	}
}

package room

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/validator"
	"ctchen222/tictactoe-minimax/pkg/proto"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HandleMessage handles a message from the player. It acts as a dispatcher.
func (r *Room) HandleMessage(ctx context.Context, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "room.HandleMessage", trace.WithAttributes(
		attribute.String("player.name", r.Player.Name),
		attribute.String("game.id", r.GameID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		r.send(ctx, proto.NewErrorMessage("malformed message"))
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.name", r.Player.Name, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		r.send(ctx, proto.NewErrorMessage(err.Error()))
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	switch message.Type {
	case proto.TypeMove:
		r.handleMove(ctx, &message)
	case proto.TypeHint:
		r.handleHint(ctx)
	}
}

// handleMove plays the player's move and reports the resulting game.
func (r *Room) handleMove(ctx context.Context, message *proto.ClientToServerMessage) {
	if len(message.Position) != 2 {
		r.send(ctx, proto.NewErrorMessage("move needs a position [row, col]"))
		return
	}

	state, err := r.sessions.Play(ctx, r.GameID, message.Move())
	if err != nil {
		r.send(ctx, proto.NewErrorMessage(err.Error()))
		return
	}
	r.send(ctx, proto.NewUpdateMessage(state))
}

func (r *Room) handleHint(ctx context.Context) {
	move, err := r.sessions.Hint(ctx, r.GameID)
	if err != nil {
		r.send(ctx, proto.NewErrorMessage(err.Error()))
		return
	}
	r.send(ctx, proto.NewHintMessage(r.GameID, move))
}

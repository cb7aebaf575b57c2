package room

import (
	"context"
	"ctchen222/tictactoe-minimax/pkg/proto"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// send writes message to the player.
func (r *Room) send(ctx context.Context, message *proto.ServerToClientMessage) {
	_, span := tracer.Start(ctx, "room.send", trace.WithAttributes(
		attribute.String("game.id", r.GameID),
		attribute.String("message.type", message.Type),
	))
	defer span.End()

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return
	}

	if err := r.Player.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.ErrorContext(ctx, "error writing message to player", "player.name", r.Player.Name, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error writing message to player")
	}
}

// ReadPump pumps messages from the websocket connection to the room until
// reading fails.
func (r *Room) ReadPump(ctx context.Context) {
	for {
		_, msg, err := r.Player.Conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.InfoContext(ctx, "Player disconnected", "player.name", r.Player.Name, "game.id", r.GameID)
			} else {
				slog.WarnContext(ctx, "Player connection error", "player.name", r.Player.Name, "game.id", r.GameID, "error", err)
			}
			r.readErr <- err
			return
		}

		select {
		case r.incoming <- msg:
		case <-ctx.Done():
			return
		}
	}
}

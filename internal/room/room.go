package room

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/player"
	"ctchen222/tictactoe-minimax/pkg/proto"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultHeartbeatInterval = 10 * time.Second

var tracer = otel.Tracer("room")

// Sessions is the part of session.Service a room drives.
type Sessions interface {
	Get(ctx context.Context, id string) (*game.GameStateDTO, error)
	Play(ctx context.Context, id string, move game.Move) (*game.GameStateDTO, error)
	Hint(ctx context.Context, id string) (game.Move, error)
}

// Room is one websocket client playing one stored game. All writes to the
// connection happen on the goroutine running Run.
type Room struct {
	GameID            string
	Player            *player.Player
	sessions          Sessions
	incoming          chan []byte
	readErr           chan error
	HeartbeatInterval time.Duration
}

// NewRoom creates a room for gameID.
func NewRoom(gameID string, p *player.Player, sessions Sessions) *Room {
	return &Room{
		GameID:            gameID,
		Player:            p,
		sessions:          sessions,
		incoming:          make(chan []byte, 10),
		readErr:           make(chan error, 1),
		HeartbeatInterval: defaultHeartbeatInterval,
	}
}

// Run sends the current game state, then serves client messages until the
// connection fails or ctx is done. The connection is closed on return.
func (r *Room) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "room.Run", trace.WithAttributes(
		attribute.String("game.id", r.GameID),
		attribute.String("player.name", r.Player.Name),
	))
	defer span.End()
	defer r.Player.Conn.Close()

	state, err := r.sessions.Get(ctx, r.GameID)
	if err != nil {
		r.send(ctx, proto.NewErrorMessage(err.Error()))
		return err
	}
	r.send(ctx, proto.NewUpdateMessage(state))

	go r.ReadPump(ctx)

	pingTicker := time.NewTicker(r.HeartbeatInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Room stopping", "game.id", r.GameID)
			return nil

		case err := <-r.readErr:
			return err

		case msg := <-r.incoming:
			r.HandleMessage(ctx, msg)

		case <-pingTicker.C:
			if err := r.Player.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "Failed to send ping to player, assuming disconnect", "player.name", r.Player.Name, "error", err)
				return err
			}
		}
	}
}

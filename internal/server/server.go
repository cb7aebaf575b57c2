package server

import (
	"ctchen222/tictactoe-minimax/internal/api/controller"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/player"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/room"
	"ctchen222/tictactoe-minimax/internal/session"
	"ctchen222/tictactoe-minimax/internal/validator"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Sessions is everything the HTTP and websocket handlers need from the
// session service.
type Sessions interface {
	controller.GameSessions
	room.Sessions
}

// Authenticator resolves a bearer token to a player name.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

type Server struct {
	engine   *gin.Engine
	users    *controller.UserController
	games    *controller.GameController
	auth     Authenticator
	sessions Sessions
	upgrader websocket.Upgrader
}

// NewServer builds the router. It installs the game validation tags on
// gin's binding validator.
func NewServer(users *controller.UserController, games *controller.GameController, auth Authenticator, sessions Sessions) (*Server, error) {
	if err := validator.RegisterGinValidations(); err != nil {
		return nil, err
	}

	s := &Server{
		engine:   gin.New(),
		users:    users,
		games:    games,
		auth:     auth,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.RegisterHandlers()
	return s, nil
}

// Engine returns the gin router.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler is the router wrapped with CORS and HTTP tracing.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(otelhttp.NewHandler(s.engine, "http.server"))
}

func (s *Server) RegisterHandlers() {
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/healthz", func(c *gin.Context) {
		response.SuccessResponse(c, gin.H{"status": "ok"})
	})

	users := s.engine.Group("/api/users")
	users.POST("/register", s.users.Register)
	users.POST("/login", s.users.Login)
	users.POST("/guest", s.users.GuestLogin)

	api := s.engine.Group("/api", s.authenticate())
	api.POST("/games", s.games.Create)
	api.GET("/games/:id", s.games.Get)
	api.POST("/games/:id/moves", s.games.Move)
	api.GET("/games/:id/hint", s.games.Hint)
	api.POST("/solve", s.games.Solve)
	api.GET("/stats/:player", s.games.Stats)

	s.engine.GET("/ws/games/:id", s.authenticate(), s.handleWebSocket)
}

// handleWebSocket upgrades the connection and plays the game in a room
// until the client goes away.
func (s *Server) handleWebSocket(c *gin.Context) {
	gameID := c.Param("id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("game.id", gameID),
		attribute.String("player.name", controller.PlayerName(c)),
	))
	defer span.End()

	if _, err := s.sessions.Get(ctx, gameID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not find game")
		response.WriteError(c, gameLookupError(err))
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	r := room.NewRoom(gameID, player.NewPlayer(controller.PlayerName(c), conn), s.sessions)
	if err := r.Run(ctx); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.InfoContext(ctx, "Websocket session ended", "game.id", gameID, "error", err)
	}
}

func gameLookupError(err error) error {
	if errors.Is(err, repository.ErrGameNotFound) {
		return response.NewError(http.StatusNotFound, err.Error())
	}
	return err
}

var _ Sessions = (*session.Service)(nil)

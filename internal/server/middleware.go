package server

import (
	"ctchen222/tictactoe-minimax/internal/api/controller"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// authenticate names the player from a bearer token, or from the "token"
// query parameter for websocket clients that cannot set headers. Requests
// without a token play as guest; a bad token is rejected.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.Next()
			return
		}

		name, err := s.auth.Authenticate(token)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "Rejected token", "error", err)
			response.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(controller.PlayerKey, name)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// requestLogger logs every request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"http.method", c.Request.Method,
			"http.route", c.FullPath(),
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			slog.ErrorContext(c.Request.Context(), "Request failed", attrs...)
			return
		}
		slog.DebugContext(c.Request.Context(), "Request served", attrs...)
	}
}

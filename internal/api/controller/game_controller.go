package controller

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/response"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlayerKey is the gin context key holding the authenticated player name.
const PlayerKey = "player"

const guestPlayer = "guest"

// GameSessions is the part of session.Service used over HTTP.
type GameSessions interface {
	NewGame(ctx context.Context, params session.NewGameParams) (*game.GameStateDTO, error)
	Get(ctx context.Context, id string) (*game.GameStateDTO, error)
	Play(ctx context.Context, id string, move game.Move) (*game.GameStateDTO, error)
	Hint(ctx context.Context, id string) (game.Move, error)
	Solve(ctx context.Context, board game.Board) (*session.Solution, error)
}

// GameController serves games against the computer.
type GameController struct {
	sessions GameSessions
	results  service.ResultService
}

// NewGameController creates a new GameController.
func NewGameController(sessions GameSessions, results service.ResultService) *GameController {
	return &GameController{sessions: sessions, results: results}
}

// PlayerName returns the player set by the auth middleware, or "guest".
func PlayerName(c *gin.Context) string {
	if name := c.GetString(PlayerKey); name != "" {
		return name
	}
	return guestPlayer
}

// Create starts a game.
func (gc *GameController) Create(c *gin.Context) {
	var req models.NewGameRequest
	// An empty body starts a default game.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	mark := game.PlayerX
	if req.HumanMark != "" {
		parsed, err := game.ParseMark(req.HumanMark)
		if err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		mark = parsed
	}

	state, err := gc.sessions.NewGame(c.Request.Context(), session.NewGameParams{
		HumanMark:  mark,
		Difficulty: bot.ParseDifficulty(req.Difficulty),
		PlayerName: PlayerName(c),
	})
	if err != nil {
		response.WriteError(c, gameError(err))
		return
	}

	response.CreatedResponse(c, models.NewGameResponse(state))
}

// Get returns a stored game.
func (gc *GameController) Get(c *gin.Context) {
	state, err := gc.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, gameError(err))
		return
	}
	response.SuccessResponse(c, models.NewGameResponse(state))
}

// Move plays the human's move and the computer's reply.
func (gc *GameController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := gc.sessions.Play(c.Request.Context(), c.Param("id"), req.Move())
	if err != nil {
		response.WriteError(c, gameError(err))
		return
	}
	response.SuccessResponse(c, models.NewGameResponse(state))
}

// Hint suggests the optimal move for the human.
func (gc *GameController) Hint(c *gin.Context) {
	move, err := gc.sessions.Hint(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, gameError(err))
		return
	}
	response.SuccessResponse(c, models.HintResponse{Move: move})
}

// Solve analyses an arbitrary board.
func (gc *GameController) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	board, err := game.ParseBoard(req.Board)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	solution, err := gc.sessions.Solve(c.Request.Context(), board)
	if err != nil {
		response.WriteError(c, gameError(err))
		return
	}
	response.SuccessResponse(c, solution)
}

// Stats returns a player's finished-game record.
func (gc *GameController) Stats(c *gin.Context) {
	stats, err := gc.results.Stats(c.Request.Context(), c.Param("player"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.SuccessResponse(c, stats)
}

// gameError maps session and board errors to HTTP statuses.
func gameError(err error) error {
	switch {
	case errors.Is(err, game.ErrInvalidMove), errors.Is(err, session.ErrNotYourTurn):
		return response.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrGameFinished):
		return response.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrGameNotFound):
		return response.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict):
		return response.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidMark), errors.Is(err, session.ErrInvalidBoard):
		return response.NewError(http.StatusBadRequest, err.Error())
	}
	return err
}

package models

import (
	"ctchen222/tictactoe-minimax/internal/game"
	"time"
)

// NewGameRequest starts a game against the computer. Both fields are
// optional: the human plays X on hard by default.
type NewGameRequest struct {
	HumanMark  string `json:"human_mark" binding:"omitempty,mark"`
	Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
}

// MoveRequest places the human's mark. Coordinates off the board are
// rejected by the game, not by binding.
type MoveRequest struct {
	Row *int `json:"row" binding:"required"`
	Col *int `json:"col" binding:"required"`
}

// Move converts the request into a board coordinate.
func (r MoveRequest) Move() game.Move {
	return game.Move{Row: *r.Row, Col: *r.Col}
}

// SolveRequest asks for the minimax analysis of any board, written in the
// compact row notation "XX./OO./...".
type SolveRequest struct {
	Board string `json:"board" binding:"required"`
}

// GameResponse is a game as returned to clients.
type GameResponse struct {
	*game.GameStateDTO
	Next   game.PlayerMark `json:"next"`
	Result game.GameResult `json:"result"`
}

// NewGameResponse wraps state with its derived fields.
func NewGameResponse(state *game.GameStateDTO) GameResponse {
	return GameResponse{
		GameStateDTO: state,
		Next:         state.Next(),
		Result:       state.Board.Result(),
	}
}

// HintResponse is the suggested move for the human.
type HintResponse struct {
	Move game.Move `json:"move"`
}

// GameResult is one finished game as stored in game_results.
type GameResult struct {
	ID         int64     `db:"id" json:"-"`
	GameID     string    `db:"game_id" json:"game_id"`
	Player     string    `db:"player" json:"player"`
	HumanMark  string    `db:"human_mark" json:"human_mark"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	Result     string    `db:"result" json:"result"`
	Moves      int       `db:"moves" json:"moves"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// Stats summarises a player's finished games from the human's side.
type Stats struct {
	Player string       `json:"player"`
	Wins   int          `json:"wins" db:"wins"`
	Losses int          `json:"losses" db:"losses"`
	Draws  int          `json:"draws" db:"draws"`
	Recent []GameResult `json:"recent"`
}

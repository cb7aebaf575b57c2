package proto

import "ctchen222/tictactoe-minimax/internal/game"

// Client message types.
const (
	TypeMove = "move"
	TypeHint = "hint"
)

// Server message types.
const (
	TypeUpdate = "update"
	TypeError  = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type     string `json:"type" validate:"required,oneof=move hint"`
	Position []int  `json:"position,omitempty" validate:"omitempty,len=2"`
}

// Move returns the position as a board coordinate.
func (m *ClientToServerMessage) Move() game.Move {
	return game.Move{Row: m.Position[0], Col: m.Position[1]}
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type    string          `json:"type" validate:"required"`
	Reason  string          `json:"reason,omitempty"`
	GameID  string          `json:"game_id,omitempty"`
	Board   *game.Board     `json:"board,omitempty"`
	Next    game.PlayerMark `json:"next,omitempty"`
	Result  game.GameResult `json:"result,omitempty"`
	History []game.Move     `json:"history,omitempty"`
	Move    *game.Move      `json:"move,omitempty"`
}

// NewUpdateMessage describes the current state of a game.
func NewUpdateMessage(state *game.GameStateDTO) *ServerToClientMessage {
	board := state.Board
	return &ServerToClientMessage{
		Type:    TypeUpdate,
		GameID:  state.ID,
		Board:   &board,
		Next:    state.Next(),
		Result:  state.Board.Result(),
		History: state.History,
	}
}

// NewErrorMessage reports a rejected client message.
func NewErrorMessage(reason string) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeError, Reason: reason}
}

// NewHintMessage carries the suggested move.
func NewHintMessage(gameID string, move game.Move) *ServerToClientMessage {
	return &ServerToClientMessage{Type: TypeHint, GameID: gameID, Move: &move}
}

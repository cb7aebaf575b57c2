package game

import "time"

// Redis hash fields of a stored game.
const (
	FieldBoard      = "board"
	FieldHumanMark  = "human_mark"
	FieldDifficulty = "difficulty"
	FieldPlayer     = "player"
	FieldHistory    = "history"
	FieldCreatedAt  = "created_at"
)

// GameStateDTO is a human-versus-computer game as stored and served.
type GameStateDTO struct {
	ID         string     `json:"id"`
	Board      Board      `json:"board"`
	HumanMark  PlayerMark `json:"human_mark"`
	Difficulty string     `json:"difficulty"`
	PlayerName string     `json:"player"`
	History    []Move     `json:"history"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ComputerMark is the mark played by the engine.
func (s *GameStateDTO) ComputerMark() PlayerMark {
	return Opponent(s.HumanMark)
}

// Next is the mark to move, or Empty once the game is over.
func (s *GameStateDTO) Next() PlayerMark {
	if s.Board.IsTerminal() {
		return Empty
	}
	return s.Board.PlayerToMove()
}

// Apply plays m on the stored board and records it.
func (s *GameStateDTO) Apply(m Move) error {
	next, err := s.Board.ApplyMove(m)
	if err != nil {
		return err
	}
	s.Board = next
	s.History = append(s.History, m)
	return nil
}

// HumanResult reports the finished game from the human's side: "win",
// "loss" or "draw". It is empty while the game is in progress.
func (s *GameStateDTO) HumanResult() string {
	winner, ok := s.Board.Winner()
	switch {
	case ok && winner == s.HumanMark:
		return "win"
	case ok:
		return "loss"
	case s.Board.IsFull():
		return "draw"
	}
	return ""
}

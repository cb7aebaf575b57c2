package game

import (
	"errors"
	"fmt"
	"strings"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark int8

// GameResult is the outcome of a board, always derived from its content.
type GameResult string

const (
	// Player marks. X always moves first.
	Empty PlayerMark = iota
	PlayerX
	PlayerO
)

const (
	InProgress GameResult = "in_progress"
	XWins      GameResult = "x_wins"
	OWins      GameResult = "o_wins"
	Draw       GameResult = "draw"
)

const (
	// Board boundaries
	BorderMin = 0
	BorderMax = 2
)

var (
	ErrInvalidMove = errors.New("invalid move")
	ErrNotTerminal = errors.New("board is not terminal")
	ErrInvalidMark = errors.New("invalid mark")
)

// lines lists every row, column and diagonal, in that order.
var lines = [8][3]Move{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

func (m PlayerMark) String() string {
	switch m {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return ""
	}
}

// MarshalText encodes the mark as "X", "O" or "".
func (m PlayerMark) MarshalText() ([]byte, error) {
	if m != Empty && m != PlayerX && m != PlayerO {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMark, m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText accepts only "X", "O" and "".
func (m *PlayerMark) UnmarshalText(text []byte) error {
	mark, err := ParseMark(string(text))
	if err != nil {
		return err
	}
	*m = mark
	return nil
}

// ParseMark converts the text form of a mark.
func ParseMark(s string) (PlayerMark, error) {
	switch s {
	case "":
		return Empty, nil
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidMark, s)
}

// Opponent returns the other player's mark. Empty has no opponent.
func Opponent(m PlayerMark) PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	}
	return Empty
}

// Move identifies one cell of the board.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Valid reports whether both indices are on the board.
func (m Move) Valid() bool {
	return m.Row >= BorderMin && m.Row <= BorderMax && m.Col >= BorderMin && m.Col <= BorderMax
}

func (m Move) String() string {
	return fmt.Sprintf("(%d, %d)", m.Row, m.Col)
}

// Board is a 3x3 grid in row-major order. It is a value: assigning or
// passing a Board copies every cell.
type Board [3][3]PlayerMark

// InitialState returns the empty starting board.
func InitialState() Board {
	return Board{}
}

// Count returns how many cells hold mark.
func (b Board) Count(mark PlayerMark) int {
	n := 0
	for r := range [3]int{} {
		for c := range [3]int{} {
			if b[r][c] == mark {
				n++
			}
		}
	}
	return n
}

// PlayerToMove derives whose turn it is from the board alone.
func (b Board) PlayerToMove() PlayerMark {
	if b.Count(PlayerX) <= b.Count(PlayerO) {
		return PlayerX
	}
	return PlayerO
}

// LegalMoves returns every empty cell in row-major order.
func (b Board) LegalMoves() []Move {
	moves := make([]Move, 0, 9)
	for r := range [3]int{} {
		for c := range [3]int{} {
			if b[r][c] == Empty {
				moves = append(moves, Move{Row: r, Col: c})
			}
		}
	}
	return moves
}

// ApplyMove returns a new board with the side to move's mark at m.
// The receiver is left untouched.
func (b Board) ApplyMove(m Move) (Board, error) {
	if !m.Valid() {
		return b, fmt.Errorf("%w: %v is off the board", ErrInvalidMove, m)
	}
	if b[m.Row][m.Col] != Empty {
		return b, fmt.Errorf("%w: %v is occupied", ErrInvalidMove, m)
	}

	next := b
	next[m.Row][m.Col] = b.PlayerToMove()
	return next, nil
}

// Winner returns the mark owning a complete line, if any.
func (b Board) Winner() (PlayerMark, bool) {
	for _, line := range lines {
		first := b[line[0].Row][line[0].Col]
		if first != Empty &&
			first == b[line[1].Row][line[1].Col] &&
			first == b[line[2].Row][line[2].Col] {
			return first, true
		}
	}
	return Empty, false
}

// IsFull reports whether no empty cell remains.
func (b Board) IsFull() bool {
	return b.Count(Empty) == 0
}

// IsTerminal reports whether the game is over, by a win or a full board.
func (b Board) IsTerminal() bool {
	if _, ok := b.Winner(); ok {
		return true
	}
	return b.IsFull()
}

// Utility scores a terminal board from X's perspective: +1, -1 or 0.
// It returns ErrNotTerminal for a game still in progress.
func (b Board) Utility() (int, error) {
	switch b.Result() {
	case XWins:
		return 1, nil
	case OWins:
		return -1, nil
	case Draw:
		return 0, nil
	}
	return 0, ErrNotTerminal
}

// Result derives the outcome of the board.
func (b Board) Result() GameResult {
	if winner, ok := b.Winner(); ok {
		if winner == PlayerX {
			return XWins
		}
		return OWins
	}
	if b.IsFull() {
		return Draw
	}
	return InProgress
}

// String renders the board as three lines, "." for empty cells.
func (b Board) String() string {
	var sb strings.Builder
	for r := range [3]int{} {
		for c := range [3]int{} {
			switch b[r][c] {
			case PlayerX:
				sb.WriteByte('X')
			case PlayerO:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		if r < BorderMax {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseBoard reads nine cells of 'X', 'O' or '.' in row-major order.
// Whitespace and '/' separators are ignored.
func ParseBoard(s string) (Board, error) {
	var b Board
	i := 0
	for _, ch := range s {
		switch ch {
		case ' ', '\n', '\t', '/':
			continue
		}
		if i >= 9 {
			return Board{}, fmt.Errorf("%w: more than 9 cells in %q", ErrInvalidMark, s)
		}
		switch ch {
		case 'X', 'x':
			b[i/3][i%3] = PlayerX
		case 'O', 'o':
			b[i/3][i%3] = PlayerO
		case '.', '_', '-':
			b[i/3][i%3] = Empty
		default:
			return Board{}, fmt.Errorf("%w: %q", ErrInvalidMark, ch)
		}
		i++
	}
	if i != 9 {
		return Board{}, fmt.Errorf("%w: expected 9 cells, got %d", ErrInvalidMark, i)
	}
	return b, nil
}

// IsReachable reports whether the mark counts could arise from alternating
// play starting with X, and at most one side has completed a line.
func (b Board) IsReachable() bool {
	x, o := b.Count(PlayerX), b.Count(PlayerO)
	if x < o || x > o+1 {
		return false
	}
	xLine, oLine := false, false
	for _, line := range lines {
		first := b[line[0].Row][line[0].Col]
		if first == Empty ||
			first != b[line[1].Row][line[1].Col] ||
			first != b[line[2].Row][line[2].Col] {
			continue
		}
		if first == PlayerX {
			xLine = true
		} else {
			oLine = true
		}
	}
	switch {
	case xLine && oLine:
		return false
	case xLine:
		return x == o+1
	case oLine:
		return x == o
	}
	return true
}

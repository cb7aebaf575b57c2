package player

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is a connected client playing one game.
type Player struct {
	// Name is the authenticated player name, "guest" for anonymous clients.
	Name string
	Conn Connection
}

// NewPlayer creates a Player.
func NewPlayer(name string, conn Connection) *Player {
	return &Player{Name: name, Conn: conn}
}

// Package game orchestrates games: starting them, committing and advancing
// turns, and building authorized views of the board.
package game

import (
	"time"

	"github.com/louisbranch/carcassonne/internal/services/game/domain/board"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
)

// Player is a registered participant. Game logic never mutates players.
type Player struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// Game is one board shared by players seated in a fixed order.
type Game struct {
	ID        string
	CreatedAt time.Time
	// Players in seat order.
	Players []Player
	// Turns by (x, y) with pending turns last.
	Turns []turn.Turn
}

// SeatIDs returns player ids in seat order.
func (g Game) SeatIDs() []string {
	ids := make([]string, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	return ids
}

// Player returns the seated player with id.
func (g Game) Player(playerID string) (Player, bool) {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// PendingTurn returns the turn waiting to be played, if any.
func (g Game) PendingTurn() (turn.Turn, bool) {
	return turn.FindPending(g.Turns)
}

// Placement is a scripted opening move.
type Placement struct {
	X      int
	Y      int
	TileID int
}

// DemoOpening is the sample layout used to show off a fresh board.
func DemoOpening() []Placement {
	return []Placement{
		{X: 0, Y: 2, TileID: 66},
		{X: 1, Y: 2, TileID: 3},
		{X: 2, Y: 2, TileID: 31},
		{X: 0, Y: 1, TileID: 18},
		{X: 2, Y: 1, TileID: 18},
		{X: 1, Y: 0, TileID: 18},
		{X: 2, Y: 0, TileID: 2},
		{X: 0, Y: 3, TileID: 1},
		{X: 3, Y: 1, TileID: 53},
		{X: 4, Y: 1, TileID: 1},
		{X: 5, Y: 1, TileID: 22},
		{X: 4, Y: 0, TileID: 56},
	}
}

// View is a game as seen by the holder of a turn token.
type View struct {
	Game  Game
	Board [][]board.Cell
	// IsPlayersTurn is true when the token authorizes this game's pending turn.
	IsPlayersTurn bool
	PendingTurn   *turn.Turn
}

// Package turn models one player's placement of one tile.
//
// A turn is created pending (no position, no played time) and is committed
// exactly once. Turns are never deleted.
package turn

import (
	"fmt"
	"time"
)

// Position is a board coordinate. y grows northward.
type Position struct {
	X int
	Y int
}

// String renders the position as "(x, y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Turn records the tile drawn for a player and, once played, where it went.
type Turn struct {
	ID        string
	GameID    string
	TileID    int
	PlayerID  string
	Position  *Position
	CreatedAt time.Time
	PlayedAt  *time.Time
}

// Pending reports whether the turn is still waiting to be played.
func (t Turn) Pending() bool {
	return t.PlayedAt == nil
}

// Placed reports whether the turn is on the board.
func (t Turn) Placed() bool {
	return t.PlayedAt != nil && t.Position != nil
}

// Commit returns a copy of t placed at pos and played at playedAt.
func (t Turn) Commit(pos Position, playedAt time.Time) Turn {
	playedAt = playedAt.UTC()
	t.Position = &pos
	t.PlayedAt = &playedAt
	return t
}

// NewPending creates a pending turn.
func NewPending(id, gameID, playerID string, tileID int, createdAt time.Time) Turn {
	return Turn{
		ID:        id,
		GameID:    gameID,
		TileID:    tileID,
		PlayerID:  playerID,
		CreatedAt: createdAt.UTC(),
	}
}

// NewPlaced creates a turn that is already on the board.
func NewPlaced(id, gameID, playerID string, tileID int, pos Position, at time.Time) Turn {
	return NewPending(id, gameID, playerID, tileID, at).Commit(pos, at)
}

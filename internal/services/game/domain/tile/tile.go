// Package tile defines the square pieces players place on the board and the
// catalog random draws come from.
package tile

import (
	"fmt"
	"strings"
)

// Side is the terrain on one edge of a tile.
type Side string

const (
	SideCastle Side = "castle"
	SideLand   Side = "land"
	SideRoad   Side = "road"
)

// ParseSide normalizes a persisted side name.
func ParseSide(raw string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(raw))); side {
	case SideCastle, SideLand, SideRoad:
		return side, nil
	default:
		return "", fmt.Errorf("unknown tile side %q", raw)
	}
}

// Edge indexes Tile.Sides in compass order.
type Edge int

const (
	North Edge = iota
	East
	South
	West
)

// Tile is one catalog piece. Tiles are seeded once and never mutated.
type Tile struct {
	ID      int
	Path    string
	Sides   [4]Side
	Special bool
}

// Side returns the terrain on edge e.
func (t Tile) Side(e Edge) Side {
	return t.Sides[e]
}

// Validate checks that the tile can be stored in a catalog.
func (t Tile) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("tile id must be positive, got %d", t.ID)
	}
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("tile %d path is required", t.ID)
	}
	for i, side := range t.Sides {
		if _, err := ParseSide(string(side)); err != nil {
			return fmt.Errorf("tile %d edge %d: %w", t.ID, i, err)
		}
	}
	return nil
}

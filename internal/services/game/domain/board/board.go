// Package board projects placed turns onto a rectangular grid.
//
// The projection is recomputed from the turn list on every read; nothing is
// cached or persisted.
package board

import (
	"fmt"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
)

// MaxCoordinate bounds the absolute value of x and y for any placement. The
// widest projected grid is therefore 2*MaxCoordinate+3 cells on a side.
const MaxCoordinate = 128

var (
	// ErrEmptyBoard is returned when no turn has been placed yet.
	ErrEmptyBoard = apperrors.New(apperrors.CodeBoardEmpty, "board has no placed tiles")
	// ErrPositionOutOfRange is returned for a coordinate beyond MaxCoordinate.
	ErrPositionOutOfRange = apperrors.New(apperrors.CodeBoardPositionOutOfRange, "position is out of range")
)

// CheckPosition reports ErrPositionOutOfRange when p lies outside
// [-MaxCoordinate, MaxCoordinate] on either axis.
func CheckPosition(p turn.Position) error {
	if p.X < -MaxCoordinate || p.X > MaxCoordinate || p.Y < -MaxCoordinate || p.Y > MaxCoordinate {
		return ErrPositionOutOfRange
	}
	return nil
}

// Cell is one grid square. Turn is nil for an empty square.
type Cell struct {
	X    int
	Y    int
	Turn *turn.Turn
}

// Empty returns an unoccupied cell.
func Empty(x, y int) Cell {
	return Cell{X: x, Y: y}
}

// Occupied returns the cell holding t. t must be placed.
func Occupied(t turn.Turn) Cell {
	return Cell{X: t.Position.X, Y: t.Position.Y, Turn: &t}
}

// Occupied reports whether a tile sits on the cell.
func (c Cell) Occupied() bool {
	return c.Turn != nil
}

// Bounds is the inclusive extent of a projected board.
type Bounds struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Width returns the number of columns.
func (b Bounds) Width() int { return b.MaxX - b.MinX + 1 }

// Height returns the number of rows.
func (b Bounds) Height() int { return b.MaxY - b.MinY + 1 }

// Measure returns the bounding box of placed turns padded by one cell on
// every side. A placed turn outside the coordinate range fails with
// ErrPositionOutOfRange.
func Measure(turns []turn.Turn) (Bounds, error) {
	var b Bounds
	found := false
	for _, t := range turns {
		if !t.Placed() {
			continue
		}
		if err := CheckPosition(*t.Position); err != nil {
			return Bounds{}, fmt.Errorf("turn %s at %s: %w", t.ID, *t.Position, err)
		}
		x, y := t.Position.X, t.Position.Y
		if !found {
			b = Bounds{MinX: x, MaxX: x, MinY: y, MaxY: y}
			found = true
			continue
		}
		b.MinX = min(b.MinX, x)
		b.MaxX = max(b.MaxX, x)
		b.MinY = min(b.MinY, y)
		b.MaxY = max(b.MaxY, y)
	}
	if !found {
		return Bounds{}, ErrEmptyBoard
	}
	b.MinX--
	b.MinY--
	b.MaxX++
	b.MaxY++
	return b, nil
}

// Project lays placed turns onto a grid. Rows run from the highest y down;
// columns run from the lowest x up. Pending turns are ignored. When two
// turns claim one coordinate the later played wins, then the greater id.
func Project(turns []turn.Turn) ([][]Cell, error) {
	bounds, err := Measure(turns)
	if err != nil {
		return nil, err
	}

	placed := make(map[turn.Position]turn.Turn, len(turns))
	for _, t := range turns {
		if !t.Placed() {
			continue
		}
		if held, ok := placed[*t.Position]; ok && !turn.Supersedes(t, held) {
			continue
		}
		placed[*t.Position] = t
	}

	rows := make([][]Cell, 0, bounds.Height())
	for y := bounds.MaxY; y >= bounds.MinY; y-- {
		row := make([]Cell, 0, bounds.Width())
		for x := bounds.MinX; x <= bounds.MaxX; x++ {
			if t, ok := placed[turn.Position{X: x, Y: y}]; ok {
				row = append(row, Occupied(t))
				continue
			}
			row = append(row, Empty(x, y))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

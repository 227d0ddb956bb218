package tile

// StartTileID is the tile every game opens with at (0, 0).
const StartTileID = 55

type deckEntry struct {
	path    string
	sides   [4]Side
	special bool
	count   int
}

// Order matters: ids are assigned sequentially from 1 and games refer to
// tiles by id.
func standardDeck() []deckEntry {
	const (
		c = SideCastle
		l = SideLand
		r = SideRoad
	)
	return []deckEntry{
		{path: "city4.png", sides: [4]Side{c, c, c, c}, special: true, count: 1},
		{path: "road4.png", sides: [4]Side{r, r, r, r}, count: 1},
		{path: "road3.png", sides: [4]Side{l, r, r, r}, count: 4},
		{path: "city3sr.png", sides: [4]Side{c, c, r, c}, special: true, count: 2},
		{path: "city3r.png", sides: [4]Side{c, c, r, c}, count: 1},
		{path: "city3s.png", sides: [4]Side{c, c, r, c}, count: 1},
		{path: "city3.png", sides: [4]Side{c, c, r, c}, special: true, count: 3},
		{path: "road2ns.png", sides: [4]Side{r, l, r, l}, count: 8},
		{path: "city2wes.png", sides: [4]Side{l, c, l, c}, special: true, count: 2},
		{path: "city2we.png", sides: [4]Side{l, c, l, c}, count: 1},
		{path: "road2sw.png", sides: [4]Side{l, l, r, r}, count: 9},
		{path: "city2nwsr.png", sides: [4]Side{c, r, r, c}, special: true, count: 2},
		{path: "city2nwr.png", sides: [4]Side{c, r, r, c}, count: 3},
		{path: "city2nws.png", sides: [4]Side{c, l, l, c}, special: true, count: 2},
		{path: "city2nw.png", sides: [4]Side{c, l, l, c}, count: 3},
		{path: "cloister.png", sides: [4]Side{l, l, l, l}, count: 4},
		{path: "cloisterr.png", sides: [4]Side{l, l, r, l}, count: 2},
		{path: "city11we.png", sides: [4]Side{l, c, l, c}, count: 3},
		{path: "city11ne.png", sides: [4]Side{c, c, l, l}, count: 2},
		{path: "city1rwe.png", sides: [4]Side{c, r, l, r}, count: 3},
		// start piece
		{path: "city1rwe.png", sides: [4]Side{c, r, l, r}, count: 1},
		{path: "city1rswe.png", sides: [4]Side{c, r, r, r}, count: 3},
		{path: "city1rsw.png", sides: [4]Side{c, l, r, r}, count: 3},
		{path: "city1rse.png", sides: [4]Side{c, r, r, l}, count: 3},
		{path: "city1.png", sides: [4]Side{c, l, l, l}, count: 5},
	}
}

// StandardDeck returns the 72 base tiles with ids 1..72.
func StandardDeck() []Tile {
	tiles := make([]Tile, 0, 72)
	for _, entry := range standardDeck() {
		for i := 0; i < entry.count; i++ {
			tiles = append(tiles, Tile{
				ID:      len(tiles) + 1,
				Path:    entry.path,
				Sides:   entry.sides,
				Special: entry.special,
			})
		}
	}
	return tiles
}

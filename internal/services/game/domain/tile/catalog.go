package tile

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/random"
)

var (
	// ErrCatalogExhausted is returned when every catalog tile is excluded.
	ErrCatalogExhausted = apperrors.New(apperrors.CodeTileCatalogExhausted, "no tile available outside the exclusion set")
	// ErrUnknownTile is returned by Get for ids outside the catalog.
	ErrUnknownTile = apperrors.New(apperrors.CodeTileUnknown, "tile not found")
)

// Catalog is the read-only set of tiles random draws come from. It is safe
// for concurrent use.
type Catalog struct {
	tiles []Tile
	byID  map[int]Tile

	mu  sync.Mutex
	rng *rand.Rand
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithRand replaces the crypto-seeded generator, mostly for tests.
func WithRand(rng *rand.Rand) CatalogOption {
	return func(c *Catalog) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// NewCatalog validates tiles and builds a catalog ordered by id.
func NewCatalog(tiles []Tile, opts ...CatalogOption) (*Catalog, error) {
	catalog := &Catalog{
		tiles: make([]Tile, 0, len(tiles)),
		byID:  make(map[int]Tile, len(tiles)),
	}
	for _, t := range tiles {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, ok := catalog.byID[t.ID]; ok {
			return nil, fmt.Errorf("duplicate tile id %d", t.ID)
		}
		catalog.byID[t.ID] = t
		catalog.tiles = append(catalog.tiles, t)
	}
	sort.Slice(catalog.tiles, func(i, j int) bool { return catalog.tiles[i].ID < catalog.tiles[j].ID })

	for _, opt := range opts {
		opt(catalog)
	}
	if catalog.rng == nil {
		rng, err := random.NewRand()
		if err != nil {
			return nil, fmt.Errorf("seed tile catalog: %w", err)
		}
		catalog.rng = rng
	}
	return catalog, nil
}

// Len returns the number of tiles in the catalog.
func (c *Catalog) Len() int {
	return len(c.tiles)
}

// Tiles returns a copy of the catalog in id order.
func (c *Catalog) Tiles() []Tile {
	out := make([]Tile, len(c.tiles))
	copy(out, c.tiles)
	return out
}

// Get returns the tile with id.
func (c *Catalog) Get(id int) (Tile, error) {
	t, ok := c.byID[id]
	if !ok {
		return Tile{}, apperrors.WrapWithMetadata(
			apperrors.CodeTileUnknown,
			fmt.Sprintf("tile %d not found", id),
			map[string]string{"tile_id": fmt.Sprint(id)},
			ErrUnknownTile,
		)
	}
	return t, nil
}

// Random draws uniformly among tiles whose id is not in exclude. A nil
// exclude excludes nothing.
func (c *Catalog) Random(exclude map[int]struct{}) (Tile, error) {
	candidates := make([]Tile, 0, len(c.tiles))
	for _, t := range c.tiles {
		if _, skip := exclude[t.ID]; !skip {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return Tile{}, ErrCatalogExhausted
	}

	c.mu.Lock()
	i := c.rng.IntN(len(candidates))
	c.mu.Unlock()
	return candidates[i], nil
}

// Exclude builds an exclusion set from tile ids.
func Exclude(ids ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

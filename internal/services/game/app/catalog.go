package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/storage"
)

// ErrCatalogEmpty indicates the tile table was never seeded.
var ErrCatalogEmpty = errors.New("tile catalog is empty; run initdb first")

// LoadCatalog builds the draw catalog from the persisted tiles.
func LoadCatalog(ctx context.Context, store storage.TileStore, opts ...tile.CatalogOption) (*tile.Catalog, error) {
	if store == nil {
		return nil, fmt.Errorf("tile store is required")
	}
	records, err := store.ListTiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrCatalogEmpty
	}
	tiles := make([]tile.Tile, 0, len(records))
	for _, record := range records {
		t, err := fromTileRecord(record)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tile.NewCatalog(tiles, opts...)
}

func fromTileRecord(record storage.TileRecord) (tile.Tile, error) {
	t := tile.Tile{ID: record.ID, Path: record.Path, Special: record.Special}
	for i, raw := range record.Sides {
		side, err := tile.ParseSide(raw)
		if err != nil {
			return tile.Tile{}, fmt.Errorf("tile %d: %w", record.ID, err)
		}
		t.Sides[i] = side
	}
	return t, nil
}

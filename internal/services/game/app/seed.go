package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/carcassonne/internal/platform/id"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/storage"
)

// DefaultPlayer is one player created by Seed.
type DefaultPlayer struct {
	Username string
	Email    string
}

// DefaultPlayers returns the players every fresh database starts with.
func DefaultPlayers() []DefaultPlayer {
	return []DefaultPlayer{
		{Username: "bluetickk", Email: "bluetickk@example.com"},
		{Username: "junglist88", Email: "junglist88@example.com"},
		{Username: "drfeelgood", Email: "drfeelgood@example.com"},
		{Username: "beanz", Email: "beanz@example.com"},
	}
}

// SeedReport summarizes one Seed run.
type SeedReport struct {
	Tiles          int
	PlayersCreated int
	PlayersKept    int
}

// Seeder writes the standard deck and the default players. Running it twice
// leaves the database unchanged.
type Seeder struct {
	Store   storage.Store
	Clock   func() time.Time
	NewID   func() (string, error)
	Players []DefaultPlayer
}

// Seed applies the seed data.
func (s Seeder) Seed(ctx context.Context) (SeedReport, error) {
	if s.Store == nil {
		return SeedReport{}, fmt.Errorf("seed store is required")
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := s.NewID
	if newID == nil {
		newID = id.NewID
	}
	players := s.Players
	if players == nil {
		players = DefaultPlayers()
	}

	deck := tile.StandardDeck()
	records := make([]storage.TileRecord, 0, len(deck))
	for _, t := range deck {
		records = append(records, toTileRecord(t))
	}
	if err := s.Store.PutTiles(ctx, records); err != nil {
		return SeedReport{}, fmt.Errorf("seed tiles: %w", err)
	}
	report := SeedReport{Tiles: len(records)}

	for _, p := range players {
		username := strings.TrimSpace(p.Username)
		_, err := s.Store.GetPlayerByUsername(ctx, username)
		if err == nil {
			report.PlayersKept++
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return report, fmt.Errorf("look up player %q: %w", username, err)
		}
		playerID, err := newID()
		if err != nil {
			return report, fmt.Errorf("new player id: %w", err)
		}
		if err := s.Store.PutPlayer(ctx, storage.PlayerRecord{
			ID:        playerID,
			Username:  username,
			Email:     strings.ToLower(strings.TrimSpace(p.Email)),
			CreatedAt: clock().UTC(),
		}); err != nil {
			return report, fmt.Errorf("seed player %q: %w", username, err)
		}
		report.PlayersCreated++
	}
	return report, nil
}

func toTileRecord(t tile.Tile) storage.TileRecord {
	record := storage.TileRecord{ID: t.ID, Path: t.Path, Special: t.Special}
	for i, side := range t.Sides {
		record.Sides[i] = string(side)
	}
	return record
}

package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/game"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
	"github.com/louisbranch/carcassonne/internal/services/game/storage"
)

// domainStoreAdapter serves game.Store from the relational records.
type domainStoreAdapter struct {
	store storage.Store
}

var _ game.Store = (*domainStoreAdapter)(nil)

func newDomainStoreAdapter(store storage.Store) *domainStoreAdapter {
	return &domainStoreAdapter{store: store}
}

func (a *domainStoreAdapter) PutPlayer(ctx context.Context, player game.Player) error {
	if a == nil || a.store == nil {
		return game.ErrStoreNotConfigured
	}
	return mapStorageError(a.store.PutPlayer(ctx, storage.PlayerRecord{
		ID:        player.ID,
		Username:  player.Username,
		Email:     player.Email,
		CreatedAt: player.CreatedAt,
	}), "player_id", player.ID)
}

func (a *domainStoreAdapter) GetPlayer(ctx context.Context, playerID string) (game.Player, error) {
	if a == nil || a.store == nil {
		return game.Player{}, game.ErrStoreNotConfigured
	}
	record, err := a.store.GetPlayer(ctx, playerID)
	if err != nil {
		return game.Player{}, mapStorageError(err, "player_id", playerID)
	}
	return toDomainPlayer(record), nil
}

func (a *domainStoreAdapter) ListPlayers(ctx context.Context) ([]game.Player, error) {
	if a == nil || a.store == nil {
		return nil, game.ErrStoreNotConfigured
	}
	records, err := a.store.ListPlayers(ctx)
	if err != nil {
		return nil, mapStorageError(err, "", "")
	}
	players := make([]game.Player, 0, len(records))
	for _, record := range records {
		players = append(players, toDomainPlayer(record))
	}
	return players, nil
}

func (a *domainStoreAdapter) CreateGame(ctx context.Context, g game.Game) error {
	if a == nil || a.store == nil {
		return game.ErrStoreNotConfigured
	}
	turns := make([]storage.TurnRecord, 0, len(g.Turns))
	for _, t := range g.Turns {
		turns = append(turns, toTurnRecord(t))
	}
	return mapStorageError(a.store.CreateGame(ctx, storage.GameRecord{
		ID:        g.ID,
		CreatedAt: g.CreatedAt,
		PlayerIDs: g.SeatIDs(),
	}, turns), "game_id", g.ID)
}

func (a *domainStoreAdapter) GetGame(ctx context.Context, gameID string) (game.Game, error) {
	if a == nil || a.store == nil {
		return game.Game{}, game.ErrStoreNotConfigured
	}
	record, err := a.store.GetGame(ctx, gameID)
	if err != nil {
		return game.Game{}, mapStorageError(err, "game_id", gameID)
	}
	return a.hydrate(ctx, record)
}

func (a *domainStoreAdapter) ListGames(ctx context.Context) ([]game.Game, error) {
	if a == nil || a.store == nil {
		return nil, game.ErrStoreNotConfigured
	}
	records, err := a.store.ListGames(ctx)
	if err != nil {
		return nil, mapStorageError(err, "", "")
	}
	games := make([]game.Game, 0, len(records))
	for _, record := range records {
		g, err := a.hydrate(ctx, record)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

// hydrate loads the seated players and turns of a game record.
func (a *domainStoreAdapter) hydrate(ctx context.Context, record storage.GameRecord) (game.Game, error) {
	g := game.Game{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Players:   make([]game.Player, 0, len(record.PlayerIDs)),
	}
	for _, playerID := range record.PlayerIDs {
		player, err := a.GetPlayer(ctx, playerID)
		if err != nil {
			return game.Game{}, fmt.Errorf("load seat %s of game %s: %w", playerID, record.ID, err)
		}
		g.Players = append(g.Players, player)
	}
	turnRecords, err := a.store.ListTurnsByGame(ctx, record.ID)
	if err != nil {
		return game.Game{}, mapStorageError(err, "game_id", record.ID)
	}
	g.Turns = make([]turn.Turn, 0, len(turnRecords))
	for _, tr := range turnRecords {
		g.Turns = append(g.Turns, toDomainTurn(tr))
	}
	return g, nil
}

func (a *domainStoreAdapter) GetTurn(ctx context.Context, turnID string) (turn.Turn, error) {
	if a == nil || a.store == nil {
		return turn.Turn{}, game.ErrStoreNotConfigured
	}
	record, err := a.store.GetTurn(ctx, turnID)
	if err != nil {
		return turn.Turn{}, mapStorageError(err, "turn_id", turnID)
	}
	return toDomainTurn(record), nil
}

func (a *domainStoreAdapter) AppendTurn(ctx context.Context, t turn.Turn) error {
	if a == nil || a.store == nil {
		return game.ErrStoreNotConfigured
	}
	return mapStorageError(a.store.AppendTurn(ctx, toTurnRecord(t)), "game_id", t.GameID)
}

func (a *domainStoreAdapter) CommitTurn(ctx context.Context, turnID string, pos turn.Position, playedAt time.Time) (turn.Turn, error) {
	if a == nil || a.store == nil {
		return turn.Turn{}, game.ErrStoreNotConfigured
	}
	record, err := a.store.CommitTurn(ctx, turnID, pos.X, pos.Y, playedAt)
	if err != nil {
		return turn.Turn{}, mapStorageError(err, "turn_id", turnID)
	}
	return toDomainTurn(record), nil
}

func toDomainPlayer(record storage.PlayerRecord) game.Player {
	return game.Player{
		ID:        record.ID,
		Username:  record.Username,
		Email:     record.Email,
		CreatedAt: record.CreatedAt,
	}
}

func toTurnRecord(t turn.Turn) storage.TurnRecord {
	record := storage.TurnRecord{
		ID:        t.ID,
		GameID:    t.GameID,
		TileID:    t.TileID,
		PlayerID:  t.PlayerID,
		CreatedAt: t.CreatedAt,
		PlayedAt:  t.PlayedAt,
	}
	if t.Position != nil {
		x, y := t.Position.X, t.Position.Y
		record.X = &x
		record.Y = &y
	}
	return record
}

func toDomainTurn(record storage.TurnRecord) turn.Turn {
	t := turn.Turn{
		ID:        record.ID,
		GameID:    record.GameID,
		TileID:    record.TileID,
		PlayerID:  record.PlayerID,
		CreatedAt: record.CreatedAt,
		PlayedAt:  record.PlayedAt,
	}
	if record.X != nil && record.Y != nil {
		t.Position = &turn.Position{X: *record.X, Y: *record.Y}
	}
	return t
}

// mapStorageError translates storage sentinels into domain errors, tagging
// the record key when one is known.
func mapStorageError(err error, key, value string) error {
	if err == nil {
		return nil
	}
	var target *apperrors.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		target = game.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		target = game.ErrConflict
	case errors.Is(err, storage.ErrTurnPlayed):
		target = game.ErrTurnNotPending
	case errors.Is(err, storage.ErrPositionTaken):
		target = game.ErrPositionOccupied
	case errors.Is(err, storage.ErrPendingTurnExists):
		target = game.ErrTurnPending
	default:
		return err
	}
	var metadata map[string]string
	if key != "" {
		metadata = map[string]string{key: value}
	}
	return apperrors.WrapWithMetadata(target.Code, target.Message, metadata, err)
}

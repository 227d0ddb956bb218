package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrTurnPlayed indicates a conditional commit found the turn already played.
	ErrTurnPlayed = errors.New("turn already played")
	// ErrPositionTaken indicates another placed turn holds the coordinate.
	ErrPositionTaken = errors.New("position already taken")
	// ErrPendingTurnExists indicates the game already has a pending turn.
	ErrPendingTurnExists = errors.New("game already has a pending turn")
)

// PlayerRecord stores one registered player.
type PlayerRecord struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// TileRecord stores one catalog tile. Sides are in North, East, South, West
// order.
type TileRecord struct {
	ID      int
	Path    string
	Sides   [4]string
	Special bool
}

// GameRecord stores one game and its seat order.
type GameRecord struct {
	ID        string
	CreatedAt time.Time
	PlayerIDs []string
}

// TurnRecord stores one turn. X and Y are nil until the turn is played.
type TurnRecord struct {
	ID        string
	GameID    string
	TileID    int
	PlayerID  string
	X         *int
	Y         *int
	CreatedAt time.Time
	PlayedAt  *time.Time
}

// PlayerStore persists players.
type PlayerStore interface {
	PutPlayer(ctx context.Context, record PlayerRecord) error
	GetPlayer(ctx context.Context, playerID string) (PlayerRecord, error)
	GetPlayerByUsername(ctx context.Context, username string) (PlayerRecord, error)
	ListPlayers(ctx context.Context) ([]PlayerRecord, error)
}

// TileStore persists the tile catalog.
type TileStore interface {
	PutTiles(ctx context.Context, records []TileRecord) error
	ListTiles(ctx context.Context) ([]TileRecord, error)
}

// GameStore persists games and their turns.
type GameStore interface {
	// CreateGame writes the game, its seats, and its opening turns in one
	// transaction.
	CreateGame(ctx context.Context, game GameRecord, turns []TurnRecord) error
	GetGame(ctx context.Context, gameID string) (GameRecord, error)
	ListGames(ctx context.Context) ([]GameRecord, error)
}

// TurnStore persists turns.
type TurnStore interface {
	GetTurn(ctx context.Context, turnID string) (TurnRecord, error)
	// ListTurnsByGame orders by (x, y) with pending turns last.
	ListTurnsByGame(ctx context.Context, gameID string) ([]TurnRecord, error)
	AppendTurn(ctx context.Context, record TurnRecord) error
	// CommitTurn places a pending turn. It fails with ErrTurnPlayed when the
	// turn is no longer pending and ErrPositionTaken when the coordinate is
	// held.
	CommitTurn(ctx context.Context, turnID string, x, y int, playedAt time.Time) (TurnRecord, error)
}

// Store is the full game persistence contract.
type Store interface {
	PlayerStore
	TileStore
	GameStore
	TurnStore
	Close() error
}

package game

import (
	"context"
	"time"

	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
)

// Store is the domain persistence boundary for games.
//
// Lookups return ErrNotFound for missing records. CommitTurn must apply only
// to a pending turn, returning ErrTurnNotPending otherwise, and must reject a
// coordinate already held in the same game with ErrPositionOccupied.
// AppendTurn returns ErrTurnPending when the game already has a pending turn.
type Store interface {
	PutPlayer(ctx context.Context, player Player) error
	GetPlayer(ctx context.Context, playerID string) (Player, error)
	ListPlayers(ctx context.Context) ([]Player, error)

	// CreateGame persists the game, its seats, and its opening turns
	// atomically.
	CreateGame(ctx context.Context, game Game) error
	GetGame(ctx context.Context, gameID string) (Game, error)
	ListGames(ctx context.Context) ([]Game, error)

	GetTurn(ctx context.Context, turnID string) (turn.Turn, error)
	AppendTurn(ctx context.Context, t turn.Turn) error
	CommitTurn(ctx context.Context, turnID string, pos turn.Position, playedAt time.Time) (turn.Turn, error)
}

// Notifier tells a player something happened. Delivery is best effort.
type Notifier interface {
	Send(ctx context.Context, player Player, subject, body string) error
}

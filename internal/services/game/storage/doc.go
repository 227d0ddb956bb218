// Package storage defines persistence records and contracts for the game
// service.
//
// It covers players, the tile catalog, games with their seats, and turns.
// Implementations (e.g., SQLite) live in subpackages.
//
// Common error values:
//   - ErrNotFound: requested record is missing
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrTurnPlayed: a commit targeted a turn that is no longer pending
//   - ErrPositionTaken: a placed turn already holds the coordinate
//   - ErrPendingTurnExists: the game already waits on a pending turn
package storage

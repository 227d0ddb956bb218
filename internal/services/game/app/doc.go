// Package server composes the game service for command entry points.
//
// It opens the SQLite stores, seeds the tile catalog and default players,
// loads the catalog used for random draws, and bridges turn notifications
// into the notification outbox.
package server

// Package sqlite implements the notification outbox on SQLite.
//
// A notification row and its channel delivery rows are written in one
// transaction. Deliveries are keyed by (notification_id, channel) and polled
// by next_attempt_at.
package sqlite

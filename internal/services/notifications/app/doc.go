// Package server composes the notification outbox: it adapts SQLite storage
// to the domain service, renders stored payloads into email copy and hands
// them to a Mailer.
package server

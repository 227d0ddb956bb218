// Package migrations embeds the notifications SQLite schema.
package migrations

import "embed"

// FS holds the ordered notifications migrations.
//
//go:embed *.sql
var FS embed.FS

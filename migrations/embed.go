// Package migrations embeds the PostgreSQL schema migrations so the server
// binary can apply them without a migrations directory on disk.
package migrations

import "embed"

// FS holds the golang-migrate up/down SQL files.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds SQLite migrations for match storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations for match storage.
//
//go:embed *.sql
var FS embed.FS

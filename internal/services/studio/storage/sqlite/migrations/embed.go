package migrations

import "embed"

// FS contains embedded SQLite migrations for studio preset storage.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded SQLite migrations for the catalog export store.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the goose migrations for the SQLite-backed
// key-value store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

// Package pgmigrations embeds the SQL migrations for the conversion event log.
package pgmigrations

import "embed"

// FS holds the numbered up/down migration files consumed by golang-migrate.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// Postgres contiene las migraciones para PostgreSQL.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite contiene las migraciones para SQLite.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

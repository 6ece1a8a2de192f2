// Package store reads unmatched films and people from the local catalog
// database and writes accepted identifiers back.
//
// Two drivers are supported through database/sql: Postgres (pgx) for the
// production catalog and SQLite (modernc) for local work and tests. The
// SQLite schema is embedded and created on first open; Postgres databases
// are expected to already carry the catalog tables.
package store

package db

import "fmt"

// ddlStatements is the additive migration set run once per owner per process
// lifetime (pkg/tenant decides when). Every statement is idempotent:
// CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS, so re-running the
// set against an already-migrated database is a no-op. Pod never rewrites or
// drops existing columns — only additive migrations are supported.
var ddlStatements = []string{
	`CREATE TABLE IF NOT EXISTS items (
		rowid               INTEGER PRIMARY KEY AUTOINCREMENT,
		id                  TEXT NOT NULL UNIQUE,
		type                TEXT NOT NULL,
		dateCreated         INTEGER NOT NULL,
		dateModified        INTEGER NOT NULL,
		dateServerModified  INTEGER NOT NULL,
		deleted             INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_type ON items(type)`,
	`CREATE INDEX IF NOT EXISTS idx_items_dsm ON items(dateServerModified)`,
	`CREATE INDEX IF NOT EXISTS idx_items_deleted ON items(deleted)`,

	`CREATE TABLE IF NOT EXISTS integers (
		item  INTEGER NOT NULL REFERENCES items(rowid),
		name  TEXT NOT NULL,
		value INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_integers_item_name ON integers(item, name)`,
	`CREATE INDEX IF NOT EXISTS idx_integers_name_value ON integers(name, value)`,

	`CREATE TABLE IF NOT EXISTS reals (
		item  INTEGER NOT NULL REFERENCES items(rowid),
		name  TEXT NOT NULL,
		value REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reals_item_name ON reals(item, name)`,
	`CREATE INDEX IF NOT EXISTS idx_reals_name_value ON reals(name, value)`,

	`CREATE TABLE IF NOT EXISTS strings (
		item  INTEGER NOT NULL REFERENCES items(rowid),
		name  TEXT NOT NULL,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_strings_item_name ON strings(item, name)`,
	`CREATE INDEX IF NOT EXISTS idx_strings_name_value ON strings(name, value)`,

	`CREATE TABLE IF NOT EXISTS edges (
		self   INTEGER NOT NULL UNIQUE REFERENCES items(rowid),
		source INTEGER NOT NULL REFERENCES items(rowid),
		name   TEXT NOT NULL,
		target INTEGER NOT NULL REFERENCES items(rowid),
		UNIQUE(source, target, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source)`,
}

// Migrate creates any tables and indices declared above that are absent from
// the database behind e. It is safe to call on every tenant-gate request;
// pkg/tenant only calls it once per owner per process lifetime as an
// optimization, not a correctness requirement.
func Migrate(e *Engine) error {
	for i, stmt := range ddlStatements {
		if err := e.ExecDDL(stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	return nil
}

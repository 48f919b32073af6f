// Package db wraps per-owner SQLite access: connection lifecycle, the
// page-level encryption pragma, and a prepared-statement cache. It is the
// only package that imports the SQLite driver.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Engine is one owner's database handle. Pod opens exactly one Engine per
// owner per process (pkg/tenant caches them). Open limits the pool to a
// single connection, which is what enforces the "exactly one writable
// connection per owner" invariant; mu guards the statement cache shared by
// concurrent requests for the same owner.
type Engine struct {
	db   *sql.DB
	Path string

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// Open opens (creating if absent) the SQLite file at path and applies the
// page-encryption pragma with key, a 64-hex-character string, or "" to
// signify an unencrypted database.
func Open(path string, key string) (*Engine, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// A single connection keeps writes serialized at the driver level,
	// matching the one-writable-connection-per-owner rule.
	sqlDB.SetMaxOpenConns(1)

	if err := applyKeyPragma(sqlDB, key); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open database %s (wrong key?): %w", path, err)
	}

	return &Engine{db: sqlDB, Path: path, stmts: make(map[string]*sql.Stmt)}, nil
}

func applyKeyPragma(sqlDB *sql.DB, key string) error {
	if key == "" {
		return nil
	}
	if _, err := sqlDB.Exec(fmt.Sprintf("PRAGMA key = \"x'%s'\"", key)); err != nil {
		return fmt.Errorf("failed to apply encryption pragma: %w", err)
	}
	return nil
}

// Close closes the underlying connection and all cached prepared statements.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, stmt := range e.stmts {
		stmt.Close()
	}
	return e.db.Close()
}

// prepare returns a cached statement for query, preparing it on first use.
func (e *Engine) prepare(query string) (*sql.Stmt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if stmt, ok := e.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := e.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	e.stmts[query] = stmt
	return stmt, nil
}

// Stmt returns the cached prepared statement for query, bound to tx.
func (e *Engine) Stmt(tx *sql.Tx, query string) (*sql.Stmt, error) {
	cached, err := e.prepare(query)
	if err != nil {
		return nil, err
	}
	return tx.Stmt(cached), nil
}

// Write runs fn inside an exclusive transaction, committing on success and
// rolling back on any error returned by fn.
func (e *Engine) Write(fn func(*sql.Tx) error) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Read runs fn inside a transaction that is always rolled back; used for
// queries so no write lock is ever taken for a read-only request.
func (e *Engine) Read(fn func(*sql.Tx) error) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(tx)
}

// ExecDDL runs a schema-definition statement directly against the
// connection, outside the prepared-statement cache. Used only by migrate.go.
func (e *Engine) ExecDDL(stmt string) error {
	if _, err := e.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to execute DDL: %w", err)
	}
	return nil
}

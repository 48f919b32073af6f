// Package store implements the low-level, transaction-scoped primitives
// over the items/integers/reals/strings/edges tables: the insert/search/
// delete operations over them. Every method here is a single prepared
// statement or a small fixed sequence of them; schema enforcement and JSON
// translation live one layer up, in pkg/pod.
package store

import (
	"database/sql"

	"github.com/memri/pod/pkg/db"
)

// SQLStore is a low-level store bound to one transaction. Callers obtain one
// from engine.Write/engine.Read's callback via New, perform a sequence of
// primitive operations, and let the callback's return value decide commit or
// rollback — SQLStore itself never commits or rolls back.
type SQLStore struct {
	engine *db.Engine
	tx     *sql.Tx
}

// New binds a low-level store to an in-flight transaction.
func New(engine *db.Engine, tx *sql.Tx) *SQLStore {
	return &SQLStore{engine: engine, tx: tx}
}

func (s *SQLStore) stmt(query string) (*sql.Stmt, error) {
	return s.engine.Stmt(s.tx, query)
}

// boolToInt and intToBool convert the Bool value type's 0/1 integer storage.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int64) bool { return i != 0 }

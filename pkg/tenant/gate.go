// Package tenant implements Pod's tenant gate: owner authorization,
// per-owner connection caching, and per-owner one-time schema migration.
package tenant

import (
	"encoding/hex"
	"path/filepath"
	"sync"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/cryptoutil"
	"github.com/memri/pod/pkg/db"
	"github.com/memri/pod/pkg/log"
)

// anyOwner is the magic allow-list value that disables the owner check
// entirely.
const anyOwner = "ANY"

// Gate owns the process-lifetime cache of per-owner *db.Engine connections,
// guarded by a single RWMutex — read-checked on the fast path, write-locked
// only on first use of an owner.
type Gate struct {
	dbRoot    string
	filesRoot string
	allowAny  bool
	allowed   map[string]struct{}

	mu      sync.RWMutex
	engines map[string]*db.Engine
}

// New builds a Gate rooted at dbRoot/filesRoot, with allowedOwnerHashesCSV
// the comma-separated set of 64-hex-character Blake2b-256 owner hashes (or
// the literal "ANY" to disable the check).
func New(dbRoot, filesRoot, allowedOwnerHashesCSV string) *Gate {
	g := &Gate{
		dbRoot:    dbRoot,
		filesRoot: filesRoot,
		allowed:   make(map[string]struct{}),
		engines:   make(map[string]*db.Engine),
	}
	for _, h := range splitCSV(allowedOwnerHashesCSV) {
		if h == anyOwner {
			g.allowAny = true
			continue
		}
		g.allowed[h] = struct{}{}
	}
	return g
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// FilesRoot returns the configured files root, for pkg/files's owner-scoped
// paths.
func (g *Gate) FilesRoot() string { return g.filesRoot }

// CheckOwner verifies ownerHex (the request's owner path segment, itself a
// hex string) hashes to an allowed owner.
func (g *Gate) CheckOwner(ownerHex string) error {
	if g.allowAny {
		return nil
	}
	raw, err := hex.DecodeString(ownerHex)
	if err != nil {
		return apierr.Newf(apierr.BadRequest, "owner %q is not valid hex", ownerHex)
	}
	hash, err := cryptoutil.Blake2b256Hex(raw)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to hash owner", err)
	}
	if _, ok := g.allowed[hash]; !ok {
		return apierr.New(apierr.Forbidden, "owner not allowed")
	}
	return nil
}

// Open authorizes ownerHex, then returns its cached connection, opening and
// migrating it on first use with the per-request databaseKey. Subsequent
// calls for the same owner reuse the cached connection; databaseKey is only
// meaningful the first time a connection is opened.
func (g *Gate) Open(ownerHex, databaseKey string) (*db.Engine, error) {
	if err := g.CheckOwner(ownerHex); err != nil {
		return nil, err
	}

	g.mu.RLock()
	e, ok := g.engines[ownerHex]
	g.mu.RUnlock()
	if ok {
		return e, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.engines[ownerHex]; ok {
		return e, nil
	}

	ownerLog := log.WithOwner(ownerHex)
	path := filepath.Join(g.dbRoot, ownerHex+".db")
	e, err := db.Open(path, databaseKey)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to open owner database", err)
	}
	if err := db.Migrate(e); err != nil {
		e.Close()
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to migrate owner database", err)
	}
	ownerLog.Info().Msg("opened owner database connection")
	g.engines[ownerHex] = e
	return e, nil
}

// CachedOwnerCount reports how many owner connections are currently cached,
// for pkg/metrics's periodic collector.
func (g *Gate) CachedOwnerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.engines)
}

// Close closes every cached connection. Used on process shutdown.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var firstErr error
	for _, e := range g.engines {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package api

import (
	"database/sql"
	"io"
	"net/http"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/db"
	"github.com/memri/pod/pkg/metrics"
	"github.com/memri/pod/pkg/pod"
	"github.com/memri/pod/pkg/store"
	"github.com/memri/pod/pkg/types"
)

// open authorizes the owner path segment and resolves the real database key
// from the request body, returning a ready-to-use Engine. Every handler
// below starts here.
func (s *Server) open(w http.ResponseWriter, r *http.Request) (*db.Engine, envelope, bool) {
	env, err := decodeEnvelope(r)
	if err != nil {
		writeError(w, err)
		return nil, envelope{}, false
	}

	databaseKey, err := resolveDatabaseKey(env, s.procKey)
	if err != nil {
		writeError(w, err)
		return nil, envelope{}, false
	}

	owner := r.PathValue("owner")
	engine, err := s.gate.Open(owner, databaseKey)
	if err != nil {
		writeError(w, err)
		return nil, envelope{}, false
	}
	return engine, env, true
}

// writeOp runs fn inside an exclusive (committing) transaction and renders
// its result, or writeOp's error, as the response.
func writeOp(w http.ResponseWriter, engine *db.Engine, fn func(*pod.Facade) (any, error)) {
	var result any
	err := engine.Write(func(tx *sql.Tx) error {
		f, err := pod.Open(engine, tx)
		if err != nil {
			return err
		}
		result, err = fn(f)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readOp runs fn inside a rolled-back (read-only) transaction: since each
// owner has exactly one writable connection, reads never hold a commit.
func readOp(w http.ResponseWriter, engine *db.Engine, fn func(*pod.Facade) (any, error)) {
	var result any
	err := engine.Read(func(tx *sql.Tx) error {
		f, err := pod.Open(engine, tx)
		if err != nil {
			return err
		}
		result, err = fn(f)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	id, err := decodePayload[string](env)
	if err != nil {
		writeError(w, err)
		return
	}
	readOp(w, engine, func(f *pod.Facade) (any, error) {
		return f.Get(id)
	})
}

func (s *Server) handleGetAllItems(w http.ResponseWriter, r *http.Request) {
	engine, _, ok := s.open(w, r)
	if !ok {
		return
	}
	readOp(w, engine, func(f *pod.Facade) (any, error) {
		return f.Search(map[string]any{})
	})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	item, err := decodePayload[map[string]any](env)
	if err != nil {
		writeError(w, err)
		return
	}
	timer := metrics.NewTimer()
	writeOp(w, engine, func(f *pod.Facade) (any, error) {
		defer timer.ObserveDuration(metrics.ItemCreateDuration)
		return f.Create(item)
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	item, err := decodePayload[map[string]any](env)
	if err != nil {
		writeError(w, err)
		return
	}
	id, _ := item[types.KeyID].(string)
	if id == "" {
		writeError(w, apierr.New(apierr.BadRequest, "payload must carry id"))
		return
	}
	timer := metrics.NewTimer()
	writeOp(w, engine, func(f *pod.Facade) (any, error) {
		defer timer.ObserveDuration(metrics.ItemUpdateDuration)
		return f.Update(id, item)
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	id, err := decodePayload[string](env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOp(w, engine, func(f *pod.Facade) (any, error) {
		return nil, f.Delete(id)
	})
}

func (s *Server) handleBulkAction(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[types.BulkRequest](env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOp(w, engine, func(f *pod.Facade) (any, error) {
		return nil, f.Bulk(req)
	})
}

func (s *Server) handleSearchByFields(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	criteria, err := decodePayload[map[string]any](env)
	if err != nil {
		writeError(w, err)
		return
	}
	timer := metrics.NewTimer()
	readOp(w, engine, func(f *pod.Facade) (any, error) {
		defer timer.ObserveDuration(metrics.ItemSearchDuration)
		return f.Search(criteria)
	})
}

func (s *Server) handleGetItemsWithEdges(w http.ResponseWriter, r *http.Request) {
	engine, env, ok := s.open(w, r)
	if !ok {
		return
	}
	ids, err := decodePayload[[]string](env)
	if err != nil {
		writeError(w, err)
		return
	}
	readOp(w, engine, func(f *pod.Facade) (any, error) {
		return f.GetItemsWithEdges(ids)
	})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	sha256Hex := r.PathValue("sha256")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apierr.Wrap(apierr.BadRequest, "failed to read upload body", err))
		return
	}

	databaseKey := r.URL.Query().Get("databaseKey")
	engine, err := s.gate.Open(owner, databaseKey)
	if err != nil {
		writeError(w, err)
		return
	}

	err = engine.Write(func(tx *sql.Tx) error {
		return s.files.Upload(store.New(engine, tx), owner, sha256Hex, body)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.FileUploadsTotal.Inc()
	metrics.FileUploadBytesTotal.Add(float64(len(body)))
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	sha256Hex := r.PathValue("sha256")
	databaseKey := r.URL.Query().Get("databaseKey")

	engine, err := s.gate.Open(owner, databaseKey)
	if err != nil {
		writeError(w, err)
		return
	}

	var plaintext []byte
	err = engine.Read(func(tx *sql.Tx) error {
		var getErr error
		plaintext, getErr = s.files.Get(store.New(engine, tx), owner, sha256Hex)
		return getErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(plaintext)
}

// Package api is Pod's JSON HTTP surface: one handler per route, each
// following the tenant-gate -> begin-tx -> one façade operation -> commit
// template. A bare http.ServeMux wrapped in an http.Server with explicit
// timeouts, no router library.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/memri/pod/pkg/config"
	"github.com/memri/pod/pkg/files"
	"github.com/memri/pod/pkg/log"
	"github.com/memri/pod/pkg/metrics"
	"github.com/memri/pod/pkg/notify"
	"github.com/memri/pod/pkg/plugin"
	"github.com/memri/pod/pkg/pluginauth"
	"github.com/memri/pod/pkg/tenant"
)

// Server is Pod's HTTP API. It owns no item data itself: every request opens
// (or reuses) the tenant gate's connection for the owner named in the path
// and runs exactly one façade operation inside one transaction.
type Server struct {
	Version string

	gate    *tenant.Gate
	files   *files.Store
	plugins *plugin.Launcher
	procKey *pluginauth.ProcessKey
	cfg     *config.Config
	mailer  *notify.Mailer

	mux *http.ServeMux
}

// New wires a Server from its already-constructed collaborators. The mailer
// fires on plugin-launch failure, addressed to the configured SMTP user
// (the operator), since there is no per-owner notification address.
func New(version string, gate *tenant.Gate, fileStore *files.Store, launcher *plugin.Launcher, procKey *pluginauth.ProcessKey, cfg *config.Config) *Server {
	s := &Server{
		Version: version,
		gate:    gate,
		files:   fileStore,
		plugins: launcher,
		procKey: procKey,
		cfg:     cfg,
		mailer:  notify.NewMailer(cfg.SMTPRelay, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPPort),
	}
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /version", s.handleVersion)

	s.handle("POST /v1/{owner}/get_item", s.handleGetItem)
	s.handle("POST /v1/{owner}/get_all_items", s.handleGetAllItems)
	s.handle("POST /v1/{owner}/create_item", s.handleCreateItem)
	s.handle("POST /v1/{owner}/update_item", s.handleUpdateItem)
	s.handle("POST /v1/{owner}/bulk_action", s.handleBulkAction)
	s.handle("POST /v1/{owner}/delete_item", s.handleDeleteItem)
	s.handle("POST /v1/{owner}/search_by_fields", s.handleSearchByFields)
	s.handle("POST /v1/{owner}/get_items_with_edges", s.handleGetItemsWithEdges)
	s.handle("POST /v1/{owner}/upload_file/{sha256}", s.handleUploadFile)
	s.handle("GET /v1/{owner}/get_file/{sha256}", s.handleGetFile)
	s.handle("POST /v1/{owner}/run_downloader", s.handleRunPlugin("downloader"))
	s.handle("POST /v1/{owner}/run_importer", s.handleRunPlugin("importer"))
	s.handle("POST /v1/{owner}/run_indexer", s.handleRunPlugin("indexer"))
}

// handle registers handler at pattern wrapped with request-count and
// duration instrumentation, keyed by the route pattern itself (a bounded,
// pre-declared label set, never the raw request path).
func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, instrument(pattern, handler))
}

// statusRecorder captures the status code a handler writes, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func instrument(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := metrics.NewTimer()
		handler(rec, r)
		timer.ObserveDurationVec(metrics.APIRequestDuration, route)
		metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

// Start runs the HTTP server on addr until ctx is cancelled, with explicit
// read/write/idle timeouts rather than the zero-value defaults.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info().Str("addr", addr).Msg("pod http api listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// GetHandler returns the HTTP handler for embedding in tests or another
// server.
func (s *Server) GetHandler() http.Handler { return s.mux }

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": s.Version})
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/rigrun-diffs/internal/config"
	"github.com/jeranaias/rigrun-diffs/internal/edit"
	"github.com/jeranaias/rigrun-diffs/internal/loader"
	"github.com/jeranaias/rigrun-diffs/internal/model"
	"github.com/jeranaias/rigrun-diffs/internal/state"
	"github.com/jeranaias/rigrun-diffs/web"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize bounds POST /api/diffs bodies.
	MaxRequestBodySize = 4 * 1024 * 1024

	// Version is reported by /health.
	Version = "0.1.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server hosts the renderer page, one bridge per websocket session and the
// diff API.
type Server struct {
	cfg     *config.Config
	proc    *edit.Processor
	readers *loader.Pool
	cache   *state.Cache
	logger *log.Logger
	assets fs.FS

	router *http.ServeMux
	server *http.Server

	mu       sync.Mutex
	sessions map[*session]struct{}

	unsubscribe func()
	routed      chan struct{}
	started     time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for SERVER_* and HTTP_REQUEST lines.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAssets serves a renderer bundle (renderer.js and friends) under
// /assets/. Without it the page falls back to its built-in table view.
func WithAssets(assets fs.FS) Option {
	return func(s *Server) { s.assets = assets }
}

// WithReaders sets the keyed readers used by POST /api/diffs/{id}. Each
// message id gets its own single-flight reader, so a resubmit cancels that
// id's older read without touching other ids. By default the pool reads
// relative to the processor's project path without a cache.
func WithReaders(readers *loader.Pool) Option {
	return func(s *Server) { s.readers = readers }
}

// New creates a server. It subscribes to cache right away so sessions see
// every stored result; Shutdown or Close ends the subscription.
func New(cfg *config.Config, proc *edit.Processor, cache *state.Cache, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:      cfg,
		proc:     proc,
		cache:    cache,
		logger:   log.Default(),
		router:   http.NewServeMux(),
		sessions: make(map[*session]struct{}),
		routed:   make(chan struct{}),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.readers == nil {
		s.readers = loader.NewPool(proc.Reader().ProjectPath(), loader.WithLogger(s.logger))
	}

	changes, unsubscribe := cache.Subscribe(64)
	s.unsubscribe = unsubscribe
	go s.routeChanges(changes)

	s.setupRoutes()
	return s
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.Handle("GET /", http.FileServerFS(web.Assets))
	if s.assets != nil {
		s.router.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(s.assets)))
	}
	s.router.HandleFunc("GET /bridge", s.handleBridge)

	s.router.HandleFunc("POST /api/diffs/{id}", s.handleSubmit)
	s.router.HandleFunc("GET /api/diffs/{id}", s.handleGet)
	s.router.HandleFunc("DELETE /api/diffs/{id}", s.handleDelete)

	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	chain := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	}
	if s.cfg.Server.RateLimit > 0 {
		chain = append(chain, RateLimitMiddleware(NewRateLimiter(s.cfg.Server.RateLimit, s.cfg.Server.RateBurst), s.logger))
	}
	return Chain(chain...)(s.router)
}

// ============================================================================
// DIFF API
// ============================================================================

// SubmitRequest is the body of POST /api/diffs/{id}.
type SubmitRequest struct {
	Tool    string          `json:"tool"`
	Payload json.RawMessage `json:"payload"`
}

// DiffResponse is returned by the diff endpoints.
type DiffResponse struct {
	ID      string           `json:"id"`
	State   *model.DiffState `json:"state"`
	Changed bool             `json:"changed"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	tool, err := model.ParseEditTool(req.Tool)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Payload) == 0 {
		s.writeError(w, http.StatusBadRequest, "missing payload")
		return
	}

	reader, release := s.readers.Acquire(id)
	results, err := s.proc.WithReader(reader).BuildResults(r.Context(), req.Payload, tool)
	release()
	if err != nil {
		var decErr *edit.DecodingError
		switch {
		case errors.As(err, &decErr):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case loader.IsCancelled(err):
			s.writeError(w, http.StatusServiceUnavailable, "request cancelled")
		default:
			s.logger.Printf("SERVER_PROCESS_FAILED | id=%s tool=%s error=%v", id, tool, err)
			s.writeError(w, http.StatusUnprocessableEntity, edit.UserMessage(err))
		}
		return
	}

	changed := s.cache.Put(r.Context(), results, id)
	s.writeJSON(w, http.StatusOK, DiffResponse{ID: id, State: s.cache.Get(id), Changed: changed})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st := s.cache.Get(id)
	if !st.HasContent() {
		s.writeError(w, http.StatusNotFound, "no diff for "+id)
		return
	}
	s.writeJSON(w, http.StatusOK, DiffResponse{ID: id, State: st})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.cache.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string      `json:"status"`
	Version  string      `json:"version"`
	Uptime   string      `json:"uptime"`
	Sessions int         `json:"sessions"`
	Cache    state.Stats `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Sessions: s.SessionCount(),
		Cache:    s.cache.Stats(),
	})
}

// ============================================================================
// STATE ROUTING
// ============================================================================

// routeChanges pushes cache changes to every session showing that message.
func (s *Server) routeChanges(changes <-chan state.Change) {
	defer close(s.routed)
	for change := range changes {
		for _, sess := range s.sessionsFor(change.Key) {
			if change.State == nil {
				sess.clear()
				continue
			}
			sess.show(change.State.Result)
		}
	}
}

func (s *Server) sessionsFor(messageID string) []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*session
	for sess := range s.sessions {
		if sess.messageID == messageID {
			out = append(out, sess)
		}
	}
	return out
}

func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess] = struct{}{}
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
}

// SessionCount returns the number of connected renderer sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Printf("SERVER_START | addr=%s version=%s", ln.Addr(), Version)
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, closes every renderer session and
// waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Printf("SERVER_SHUTDOWN | sessions=%d", s.SessionCount())
	s.Close()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Close ends the cache subscription and drops all sessions without waiting
// for the HTTP server.
func (s *Server) Close() {
	s.unsubscribe()
	<-s.routed

	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("SERVER_WRITE_FAILED | error=%v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

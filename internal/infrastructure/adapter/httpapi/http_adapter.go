// Package httpapi exposes the triage conversation over HTTP. It maps the
// application service onto a small JSON API so the conversation can be driven
// by a web frontend instead of the CLI.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"support-triage-agent/internal/application/dto"
	appservice "support-triage-agent/internal/application/service"
	"support-triage-agent/internal/domain/entity"
	"support-triage-agent/internal/domain/port"
)

// maxBodySize is the maximum allowed size for request bodies (1MB).
const maxBodySize = 1 << 20

// HTTPAdapterConfig configures the triage HTTP server.
type HTTPAdapterConfig struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the grace period for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() HTTPAdapterConfig {
	return HTTPAdapterConfig{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// HTTPAdapter serves the triage session API.
type HTTPAdapter struct {
	triage  *appservice.TriageService
	config  HTTPAdapterConfig
	server  *http.Server
	router  *mux.Router
	mu      sync.Mutex
	started bool
}

// NewHTTPAdapter creates a new triage HTTP adapter.
func NewHTTPAdapter(triage *appservice.TriageService, config HTTPAdapterConfig) *HTTPAdapter {
	adapter := &HTTPAdapter{
		triage: triage,
		config: config,
		router: mux.NewRouter(),
	}
	adapter.registerRoutes()
	return adapter
}

// registerRoutes sets up the HTTP routes.
func (a *HTTPAdapter) registerRoutes() {
	a.router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	a.router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)
	a.router.HandleFunc("/sessions", a.handleStartSession).Methods(http.MethodPost)
	a.router.HandleFunc("/sessions/{id}", a.handleGetSession).Methods(http.MethodGet)
	a.router.HandleFunc("/sessions/{id}", a.handleEndSession).Methods(http.MethodDelete)
	a.router.HandleFunc("/sessions/{id}/input", a.handleInput).Methods(http.MethodPost)
}

// handleHealth returns 200 OK if the server is running.
func (a *HTTPAdapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady returns 200 OK once the triage service is wired.
func (a *HTTPAdapter) handleReady(w http.ResponseWriter, _ *http.Request) {
	if a.triage == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "triage service not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartSession creates a new conversation and returns the greeting turn.
func (a *HTTPAdapter) handleStartSession(w http.ResponseWriter, r *http.Request) {
	resp, err := a.triage.StartSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleInput processes one user turn.
func (a *HTTPAdapter) handleInput(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req dto.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := a.triage.HandleInput(r.Context(), sessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetSession returns the current conversation state.
func (a *HTTPAdapter) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := a.triage.Snapshot(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleEndSession deletes a conversation.
func (a *HTTPAdapter) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := a.triage.EndSession(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps domain and application errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, port.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dto.ErrEmptyInput),
		errors.Is(err, dto.ErrMissingForm),
		errors.Is(err, appservice.ErrEmptySessionID):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrConversationClosed),
		errors.Is(err, entity.ErrInvalidTransition):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start begins listening for HTTP requests.
// This method blocks until the context is cancelled or an error occurs.
func (a *HTTPAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}

	a.server = &http.Server{
		Addr:         a.config.Addr,
		Handler:      a.router,
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
	}
	a.started = true
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (a *HTTPAdapter) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started || a.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.started = false
	return err
}

// Addr returns the configured address.
func (a *HTTPAdapter) Addr() string {
	return a.config.Addr
}

// Router returns the HTTP router for testing purposes.
func (a *HTTPAdapter) Router() *mux.Router {
	return a.router
}

// Package api provides the HTTP server and handlers for HerSpace.
//
// It exposes JSON endpoints that create wizard sessions, apply user actions, render
// steps, request supportive messages, and serve the therapist finder and static
// resource content. The API integrates the flow, store and places modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/HerSpace/internal/flow"
	"github.com/BTreeMap/HerSpace/internal/models"
	"github.com/BTreeMap/HerSpace/internal/places"
	"github.com/BTreeMap/HerSpace/internal/store"
)

// Default server configuration.
const (
	DefaultAddr            = ":8080"
	DefaultExternalTimeout = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	// DefaultWriteTimeout leaves room for the final response to be generated.
	DefaultWriteTimeout = 2 * time.Minute
	maxBodyBytes        = 1 << 20
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string
	ExternalTimeout time.Duration
	SessionTTL      time.Duration
	Clock           func() time.Time
}

// Option defines a function that modifies Opts.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithExternalTimeout bounds each request's calls to external services.
func WithExternalTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ExternalTimeout = d }
}

// WithSessionTTL sets how long an unused session's credential is kept in memory.
// Zero keeps it until the session is deleted or the process exits.
func WithSessionTTL(d time.Duration) Option {
	return func(o *Opts) { o.SessionTTL = d }
}

// WithClock overrides the time source used to age held credentials.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// TherapistFinder searches for therapy locations around an address or coordinates.
type TherapistFinder interface {
	Find(ctx context.Context, address string, at *models.Location, radiusMiles float64) (places.Result, error)
}

// Server wires the wizard to HTTP.
type Server struct {
	wizard      *flow.Wizard
	st          store.Store
	finder      TherapistFinder
	locks       *sessionLocks
	credentials *credentialVault
	newID       func() string
	addr        string
	timeout     time.Duration
	mux         *http.ServeMux
}

// NewServer creates a Server. finder may be nil, in which case the therapist finder
// reports itself unavailable.
func NewServer(wizard *flow.Wizard, st store.Store, finder TherapistFinder, opts ...Option) *Server {
	o := Opts{Addr: DefaultAddr, ExternalTimeout: DefaultExternalTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.ExternalTimeout <= 0 {
		o.ExternalTimeout = DefaultExternalTimeout
	}
	s := &Server{
		wizard:      wizard,
		st:          st,
		finder:      finder,
		locks:       newSessionLocks(),
		credentials: newCredentialVault(o.SessionTTL, o.Clock),
		newID:       uuid.NewString,
		addr:        o.Addr,
		timeout:     o.ExternalTimeout,
		mux:         http.NewServeMux(),
	}
	s.routes()
	slog.Debug("Server created", "addr", s.addr, "externalTimeout", s.timeout, "finderEnabled", finder != nil)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /sessions", s.createSessionHandler)
	s.mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	s.mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	s.mux.HandleFunc("POST /sessions/{id}/credential", s.credentialHandler)
	s.mux.HandleFunc("POST /sessions/{id}/actions", s.actionHandler)
	s.mux.HandleFunc("POST /sessions/{id}/agent", s.agentHandler)
	s.mux.HandleFunc("GET /sessions/{id}/videos", s.videosHandler)
	s.mux.HandleFunc("GET /therapists", s.therapistsHandler)
	s.mux.HandleFunc("GET /resources/crisis", s.crisisHandler)
	s.mux.HandleFunc("GET /faq", s.faqHandler)
	s.mux.HandleFunc("GET /healthz", s.healthHandler)
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: HerSpace API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("Server.Run: listener failed", "error", err)
		return err
	case <-ctx.Done():
	}

	slog.Info("Server.Run: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server.Run: graceful shutdown failed", "error", err)
		return err
	}
	return nil
}

// externalContext derives the context used for calls to external services.
func (s *Server) externalContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

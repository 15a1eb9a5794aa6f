// Package store provides session storage backends for HerSpace.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// DefaultDirPermissions is used when creating the directory of a file-backed database.
const DefaultDirPermissions = 0755

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 24 * time.Hour

// Store persists sessions by id. Implementations are safe for concurrent use across sessions.
type Store interface {
	// GetSession returns the session or models.ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (models.Session, error)
	SaveSession(ctx context.Context, s models.Session) error
	DeleteSession(ctx context.Context, id string) error
	// PruneSessions removes sessions last updated before the cutoff and reports how many.
	PruneSessions(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	DSN           string
	TTL           time.Duration
	RedisPassword string
	RedisDB       int
	Clock         func() time.Time
}

// Option defines a function that modifies Opts.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite data source name (usually a file path).
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the Postgres connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRedisAddr sets the Redis host:port.
func WithRedisAddr(addr string) Option {
	return func(o *Opts) { o.DSN = addr }
}

// WithRedisAuth sets the Redis password and database number.
func WithRedisAuth(password string, db int) Option {
	return func(o *Opts) {
		o.RedisPassword = password
		o.RedisDB = db
	}
}

// WithTTL sets how long sessions survive without an update. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TTL = ttl }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

func applyOpts(opts []Option) Opts {
	cfg := Opts{Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return cfg
}

// DetectDSNType returns "postgres" for Postgres URLs or keyword DSNs, otherwise "sqlite3".
func DetectDSNType(dsn string) string {
	d := strings.TrimSpace(dsn)
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(d, "host=") || strings.Contains(d, "dbname=") || strings.Contains(d, "user=") {
		return "postgres"
	}
	return "sqlite3"
}

// expired reports whether a session last updated at updated has outlived ttl.
func expired(updated time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(updated) > ttl
}

func encodeSession(s models.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

func decodeSession(id string, data []byte) (models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

// InMemoryStore is an in-memory session store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	cfg := applyOpts(opts)
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		ttl:      cfg.TTL,
		now:      cfg.Clock,
	}
}

func (s *InMemoryStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	if expired(sess.UpdatedAt, s.ttl, s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		slog.Debug("InMemoryStore.GetSession: session expired", "sessionID", id)
		return models.Session{}, models.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) SaveSession(ctx context.Context, sess models.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	stored := sess.Clone()
	stored.Credential = ""
	stored.CredentialValidated = false
	s.mu.Lock()
	s.sessions[sess.ID] = stored
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) PruneSessions(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(before) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// This file implements a PostgreSQL-backed session store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/HerSpace/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	cfg := applyOpts(opts)
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "", "ttl", cfg.TTL)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db, ttl: cfg.TTL, now: cfg.Clock}, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	var (
		data    []byte
		updated time.Time
	)
	err := s.db.QueryRowContext(ctx, `SELECT data, updated_at FROM sessions WHERE id = $1`, id).Scan(&data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("PostgresStore.GetSession: query failed", "error", err, "sessionID", id)
		return models.Session{}, err
	}
	if expired(updated, s.ttl, s.now()) {
		slog.Debug("PostgresStore.GetSession: session expired", "sessionID", id)
		if err := s.DeleteSession(ctx, id); err != nil {
			return models.Session{}, err
		}
		return models.Session{}, models.ErrSessionNotFound
	}
	return decodeSession(id, data)
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess models.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, step, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET step = EXCLUDED.step, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.Step, data, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore.SaveSession: upsert failed", "error", err, "sessionID", sess.ID)
		return err
	}
	slog.Debug("PostgresStore.SaveSession: saved", "sessionID", sess.ID, "step", sess.Step)
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		slog.Error("PostgresStore.DeleteSession: delete failed", "error", err, "sessionID", id)
		return err
	}
	return nil
}

func (s *PostgresStore) PruneSessions(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < $1`, before)
	if err != nil {
		slog.Error("PostgresStore.PruneSessions: delete failed", "error", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}

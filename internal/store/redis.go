// This file implements a Redis-backed session store with server-side expiry.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// RedisKeyPrefix namespaces session keys.
const RedisKeyPrefix = "herspace:session:"

// DefaultRedisDialTimeout bounds connection setup and the startup ping.
const DefaultRedisDialTimeout = 5 * time.Second

type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
// Each save refreshes the key's TTL; a zero TTL keeps sessions until deleted.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	cfg := applyOpts(opts)
	slog.Debug("RedisStore.NewRedisStore: creating Redis store", "addr_set", cfg.DSN != "", "db", cfg.RedisDB, "ttl", cfg.TTL)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("redis address not set")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.DSN,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: DefaultRedisDialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), DefaultRedisDialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		slog.Error("RedisStore.NewRedisStore: ping failed", "error", err)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: cfg.TTL}, nil
}

func redisKey(id string) string {
	return RedisKeyPrefix + id
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	data, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("RedisStore.GetSession: get failed", "error", err, "sessionID", id)
		return models.Session{}, err
	}
	return decodeSession(id, data)
}

func (s *RedisStore) SaveSession(ctx context.Context, sess models.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKey(sess.ID), data, s.ttl).Err(); err != nil {
		slog.Error("RedisStore.SaveSession: set failed", "error", err, "sessionID", sess.ID)
		return err
	}
	return nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		slog.Error("RedisStore.DeleteSession: del failed", "error", err, "sessionID", id)
		return err
	}
	return nil
}

// PruneSessions is a no-op: Redis expires keys on its own.
func (s *RedisStore) PruneSessions(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Package redis is an ephemeral cache backend on a Redis server.
//
// Each entry is a hash under <prefix><key> holding the document and the
// build time in Unix nanoseconds. Entries carry no expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mfenderov/jsonld/internal/cache"
	"github.com/redis/go-redis/v9"
)

const (
	fieldDocument = "document"
	fieldBuiltAt  = "built_at"
)

// DefaultPrefix namespaces cache keys in a shared database.
const DefaultPrefix = "jsonld:"

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store keeps entries in Redis hashes.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix uses
// DefaultPrefix.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) redisKey(key string) string {
	return s.prefix + key
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return cache.Entry{}, false, err
	}

	fields, err := s.client.HGetAll(ctx, s.redisKey(key)).Result()
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	doc, ok := fields[fieldDocument]
	if !ok {
		return cache.Entry{}, false, nil
	}

	nanos, err := strconv.ParseInt(fields[fieldBuiltAt], 10, 64)
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to parse build time of %s: %w", key, err)
	}

	return cache.Entry{Document: doc, BuiltAt: time.Unix(0, nanos)}, true, nil
}

// Put implements cache.Store. Both fields are written by a single HSET.
func (s *Store) Put(ctx context.Context, key, document string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	builtAt := strconv.FormatInt(s.now().UnixNano(), 10)
	if err := s.client.HSet(ctx, s.redisKey(key), fieldDocument, document, fieldBuiltAt, builtAt).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// IsStale implements cache.Store.
func (s *Store) IsStale(ctx context.Context, key string, modifiedAt time.Time) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}

	raw, err := s.client.HGet(ctx, s.redisKey(key), fieldBuiltAt).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse build time of %s: %w", key, err)
	}
	return time.Unix(0, nanos).Before(modifiedAt), nil
}

// Invalidate implements cache.Store.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

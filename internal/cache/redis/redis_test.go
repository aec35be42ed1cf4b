package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mfenderov/jsonld/internal/cache"
	"github.com/mfenderov/jsonld/internal/cache/cachetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNewWithClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	s := NewWithClient(client, "")
	assert.Equal(t, "jsonld:blogpost_1", s.redisKey("blogpost_1"))

	s = NewWithClient(client, "site-a:")
	assert.Equal(t, "site-a:blogpost_1", s.redisKey("blogpost_1"))
}

// connect returns a store on the Redis server named by REDIS_ADDR, or skips
// the test when none is reachable. Every call gets its own key prefix.
func connect(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	prefix := fmt.Sprintf("jsonld-test:%s:%d:", strings.ReplaceAll(t.Name(), "/", "-"), time.Now().UnixNano())
	s, err := New(context.Background(), Config{Addr: addr, Prefix: prefix})
	if err != nil {
		t.Skipf("Redis not available, skipping integration test: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		keys, err := s.client.Keys(ctx, prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			s.client.Del(ctx, keys...)
		}
		s.Close()
	})
	return s
}

func TestIntegration_Store(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Store {
		return connect(t)
	})
}

func TestIntegration_BuildTimeFromClock(t *testing.T) {
	s := connect(t)
	built := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return built }

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "author_7", "{}"))

	entry, ok, err := s.Get(ctx, "author_7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.BuiltAt.Equal(built))

	stale, err := s.IsStale(ctx, "author_7", built.Add(time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, stale)
}

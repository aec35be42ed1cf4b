// Package cachetest holds the behavior every cache.Store must share.
package cachetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mfenderov/jsonld/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a store created fresh by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) cache.Store) {
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		s := newStore(t)

		_, ok, err := s.Get(ctx, "blogpost_1")
		require.NoError(t, err)
		assert.False(t, ok)

		stale, err := s.IsStale(ctx, "blogpost_1", time.Time{})
		require.NoError(t, err)
		assert.True(t, stale, "missing entries are stale")
	})

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		doc := "{\n    \"@type\": \"Person\",\n    \"name\": \"Jörg\"\n}"

		require.NoError(t, s.Put(ctx, "author_7", doc))

		entry, ok, err := s.Get(ctx, "author_7")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, doc, entry.Document)
		assert.False(t, entry.BuiltAt.IsZero())
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "page_3", `{"v":1}`))
		require.NoError(t, s.Put(ctx, "page_3", `{"v":2}`))

		entry, ok, err := s.Get(ctx, "page_3")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `{"v":2}`, entry.Document)
	})

	t.Run("staleness follows modification time", func(t *testing.T) {
		s := newStore(t)
		putAt := time.Now()

		require.NoError(t, s.Put(ctx, "blogpost_9", `{}`))

		stale, err := s.IsStale(ctx, "blogpost_9", putAt.Add(-time.Minute))
		require.NoError(t, err)
		assert.False(t, stale, "content modified before the build")

		stale, err = s.IsStale(ctx, "blogpost_9", time.Time{})
		require.NoError(t, err)
		assert.False(t, stale, "untracked modification time")

		stale, err = s.IsStale(ctx, "blogpost_9", time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, stale, "content modified after the build")
	})

	t.Run("invalidate", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "blogpost_5", `{}`))
		require.NoError(t, s.Invalidate(ctx, "blogpost_5"))

		_, ok, err := s.Get(ctx, "blogpost_5")
		require.NoError(t, err)
		assert.False(t, ok)

		stale, err := s.IsStale(ctx, "blogpost_5", time.Time{})
		require.NoError(t, err)
		assert.True(t, stale)

		assert.NoError(t, s.Invalidate(ctx, "blogpost_5"), "invalidating a missing key")
	})

	t.Run("invalid key", func(t *testing.T) {
		s := newStore(t)
		for _, key := range []string{"../escape", "", "a b"} {
			assert.ErrorIs(t, s.Put(ctx, key, `{}`), cache.ErrInvalidKey, key)

			_, _, err := s.Get(ctx, key)
			assert.ErrorIs(t, err, cache.ErrInvalidKey, key)

			_, err = s.IsStale(ctx, key, time.Time{})
			assert.ErrorIs(t, err, cache.ErrInvalidKey, key)

			assert.ErrorIs(t, s.Invalidate(ctx, key), cache.ErrInvalidKey, key)
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		docs := []string{`{"writer":"a"}`, `{"writer":"b"}`}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(doc string) {
				defer wg.Done()
				assert.NoError(t, s.Put(ctx, "blogpost_77", doc))
			}(docs[i%2])
		}
		wg.Wait()

		entry, ok, err := s.Get(ctx, "blogpost_77")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, docs, entry.Document, "last writer wins with a whole document")
	})
}

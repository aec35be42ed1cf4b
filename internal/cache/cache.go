// Package cache stores serialized documents between requests.
//
// Entries never expire by age. An entry is stale when it is missing or was
// built before the content it describes was last modified; every backend
// applies this rule against the time the entry was written.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidKey is returned for keys that are empty or not filename-safe.
var ErrInvalidKey = errors.New("invalid cache key")

// Entry is a cached document.
type Entry struct {
	Document string
	BuiltAt  time.Time
}

// Stale reports whether the entry predates a content modification.
func (e Entry) Stale(modifiedAt time.Time) bool {
	return e.BuiltAt.Before(modifiedAt)
}

// Store is a document cache backend.
type Store interface {
	// Get returns the entry for key. A miss is ok == false with a nil error.
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)

	// Put stores document under key, replacing any previous entry.
	// Concurrent readers see either the old or the new document in full.
	Put(ctx context.Context, key, document string) error

	// IsStale reports whether the entry for key is missing or was built
	// before modifiedAt.
	IsStale(ctx context.Context, key string, modifiedAt time.Time) (bool, error)

	// Invalidate removes the entry for key. Removing a missing key is not an
	// error.
	Invalidate(ctx context.Context, key string) error
}

// Key builds the cache key for a document, e.g. Key("blogpost", "42") is
// "blogpost_42". Bytes of id outside [A-Za-z0-9.-] are written as '_'
// followed by two hex digits, so distinct ids never share a key.
func Key(prefix, id string) string {
	return prefix + "_" + escape(id)
}

// ValidateKey rejects keys that cannot be used as file or object names.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.IndexFunc(key, func(r rune) bool {
		return !safe(r) && r != '_'
	}) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func safe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-':
		return true
	}
	return false
}

func escape(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if safe(rune(c)) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// IsStale implements Store.IsStale for backends that can read entries.
func IsStale(ctx context.Context, s Store, key string, modifiedAt time.Time) (bool, error) {
	entry, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return !ok || entry.Stale(modifiedAt), nil
}

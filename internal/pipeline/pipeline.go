// Package pipeline serves JSON-LD documents through the cache.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/jsonld/internal/assembler"
	"github.com/mfenderov/jsonld/internal/cache"
	"github.com/mfenderov/jsonld/internal/markup"
)

// Pipeline is the read-through path from a page to its document. It is
// built once at startup and shared between requests.
type Pipeline struct {
	assembler *assembler.Assembler
	store     cache.Store // nil disables caching
}

// New creates a new Pipeline. A nil store disables caching.
func New(a *assembler.Assembler, store cache.Store) *Pipeline {
	return &Pipeline{
		assembler: a,
		store:     store,
	}
}

// Key returns the cache key of a page's document.
func Key(page assembler.Page) string {
	return cache.Key(page.CachePrefix(), page.ID)
}

// Document returns the serialized document for a page, from the cache when
// the cached entry is at least as new as the content, otherwise freshly
// built. Cache failures are logged and never fail the request.
func (p *Pipeline) Document(ctx context.Context, page assembler.Page) (string, error) {
	if p.store == nil {
		return p.build(ctx, page)
	}

	key := Key(page)
	modifiedAt, err := p.assembler.ModifiedAt(ctx, page)
	if err != nil {
		return "", fmt.Errorf("failed to look up modification time: %w", err)
	}

	if doc, ok := p.cached(ctx, key, modifiedAt); ok {
		slog.Debug("cache hit", "key", key)
		return doc, nil
	}

	doc, err := p.build(ctx, page)
	if err != nil {
		return "", err
	}

	if err := p.store.Put(ctx, key, doc); err != nil {
		slog.Warn("failed to cache document, serving uncached", "key", key, "error", err)
	} else {
		slog.Debug("document cached", "key", key)
	}

	return doc, nil
}

// cached returns the stored document for key unless it is missing, stale or
// unreadable.
func (p *Pipeline) cached(ctx context.Context, key string, modifiedAt time.Time) (string, bool) {
	entry, ok, err := p.store.Get(ctx, key)
	if err != nil {
		slog.Warn("failed to read cache, rebuilding", "key", key, "error", err)
		return "", false
	}
	if !ok || entry.Stale(modifiedAt) {
		return "", false
	}
	return entry.Document, true
}

func (p *Pipeline) build(ctx context.Context, page assembler.Page) (string, error) {
	data, err := p.assembler.Assemble(ctx, page)
	if err != nil {
		return "", fmt.Errorf("failed to build %s %s: %w", page.Kind, page.ID, err)
	}
	return string(data), nil
}

// Render returns the script element embedding a page's document, or "" when
// the document cannot be built. It never fails.
func (p *Pipeline) Render(ctx context.Context, page assembler.Page) string {
	doc, err := p.Document(ctx, page)
	if err != nil {
		slog.Warn("structured data omitted", "kind", page.Kind, "id", page.ID, "error", err)
		return ""
	}
	return markup.Script(doc)
}

// Invalidate drops the cached document of a page. Call it when the
// content behind the page changes.
func (p *Pipeline) Invalidate(ctx context.Context, page assembler.Page) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.Invalidate(ctx, Key(page)); err != nil {
		return fmt.Errorf("failed to invalidate %s %s: %w", page.Kind, page.ID, err)
	}
	return nil
}

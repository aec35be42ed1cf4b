// Package assembler composes builder entities into one JSON-LD document
// per page.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mfenderov/jsonld/internal/builder"
	"github.com/mfenderov/jsonld/internal/content"
	"github.com/mfenderov/jsonld/internal/schema"
)

// Kind classifies the page being rendered. The host decides the kind.
type Kind string

const (
	KindPost   Kind = "post"
	KindPage   Kind = "page"
	KindAuthor Kind = "author"
)

// ErrUnknownKind is returned for a page kind outside the supported set.
var ErrUnknownKind = errors.New("unknown page kind")

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPost, KindPage, KindAuthor:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Page identifies the page to describe: its kind and the id of the item
// (posts, pages) or author (author archives).
type Page struct {
	Kind Kind
	ID   string
}

// CachePrefix returns the cache key prefix for documents of this page kind.
func (p Page) CachePrefix() string {
	switch p.Kind {
	case KindPost:
		return "blogpost"
	case KindPage:
		return "page"
	case KindAuthor:
		return "author"
	}
	return string(p.Kind)
}

// Assembler builds complete documents from content.
type Assembler struct {
	builder *builder.Builder
	repo    content.Repository
}

// New creates an Assembler.
func New(b *builder.Builder, repo content.Repository) *Assembler {
	return &Assembler{
		builder: b,
		repo:    repo,
	}
}

// Assemble builds and serializes the document for a page.
func (a *Assembler) Assemble(ctx context.Context, page Page) ([]byte, error) {
	root, err := a.Root(ctx, page)
	if err != nil {
		return nil, err
	}
	return schema.Marshal(root)
}

// Root builds the root entity of a page's document with all nested
// entities attached.
func (a *Assembler) Root(ctx context.Context, page Page) (schema.Entity, error) {
	switch page.Kind {
	case KindPost:
		return a.article(ctx, schema.TypeBlogPosting, page.ID)
	case KindPage:
		return a.article(ctx, schema.TypeArticle, page.ID)
	case KindAuthor:
		return a.author(ctx, page.ID)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, page.Kind)
}

// ModifiedAt returns when the content behind a page last changed. A zero
// time means the source does not track modification.
func (a *Assembler) ModifiedAt(ctx context.Context, page Page) (time.Time, error) {
	switch page.Kind {
	case KindPost, KindPage:
		item, err := a.repo.Item(ctx, page.ID)
		if err != nil {
			return time.Time{}, err
		}
		return item.ModifiedAt, nil
	case KindAuthor:
		author, err := a.repo.Author(ctx, page.ID)
		if err != nil {
			return time.Time{}, err
		}
		return author.ModifiedAt, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownKind, page.Kind)
}

func (a *Assembler) article(ctx context.Context, t schema.Type, id string) (*schema.Article, error) {
	item, err := a.repo.Item(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}

	article, err := a.builder.Article(t, item)
	if err != nil {
		return nil, err
	}
	article.AttachContext()

	author, err := a.repo.Author(ctx, item.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author of item %s: %w", id, err)
	}
	if article.Author, err = a.builder.Person(author); err != nil {
		return nil, err
	}

	site, err := a.repo.Site(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	if article.Publisher, err = a.builder.Organization(ctx, site); err != nil {
		return nil, err
	}

	article.Image = a.builder.Image(item.LeadImage)
	article.MainEntityOfPage = schema.NewReference(article.EntityType(), article.EntityID())
	article.AggregateRating = a.builder.Rating(ctx, item.ID, "")

	return article, nil
}

func (a *Assembler) author(ctx context.Context, id string) (*schema.Person, error) {
	author, err := a.repo.Author(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	person, err := a.builder.Person(author)
	if err != nil {
		return nil, err
	}
	person.AttachContext()

	return person, nil
}

// Package builder maps content from the host system onto schema.org
// entities, one entity per type.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mfenderov/jsonld/internal/content"
	"github.com/mfenderov/jsonld/internal/markup"
	"github.com/mfenderov/jsonld/internal/schema"
)

// ErrMissingRequiredData is returned when content lacks a field without
// which the entity cannot be built.
var ErrMissingRequiredData = errors.New("missing required data")

// Config holds builder options.
type Config struct {
	// IncludeAuthorEmail publishes the author's email address on Person
	// entities. Off unless explicitly enabled.
	IncludeAuthorEmail bool
}

// Builder creates entities from content.
type Builder struct {
	ratings content.Ratings // nil if no rating source is installed
	logos   LogoResolver    // nil disables publisher logos
	config  Config
}

// New creates a Builder. ratings and logos are optional.
func New(ratings content.Ratings, logos LogoResolver, config Config) *Builder {
	return &Builder{
		ratings: ratings,
		logos:   logos,
		config:  config,
	}
}

// Article builds an Article or BlogPosting from an item.
func (b *Builder) Article(t schema.Type, item content.Item) (*schema.Article, error) {
	headline := markup.PlainText(item.Title)
	if headline == "" {
		return nil, missing("title", "item", item.ID)
	}
	if item.Permalink == "" {
		return nil, missing("permalink", "item", item.ID)
	}
	if item.PublishedAt.IsZero() {
		return nil, missing("published date", "item", item.ID)
	}

	article := schema.NewArticle(t)
	article.SetID(item.Permalink)
	article.URL = item.Permalink
	article.Headline = headline
	article.DatePublished = item.PublishedAt
	article.DateModified = item.ModifiedAt
	article.CommentCount = item.CommentCount

	if section, ok := item.PrimaryCategory(); ok {
		article.ArticleSection = markup.PlainText(section)
	} else {
		slog.Debug("item has no category, omitting articleSection", "item", item.ID)
	}

	return article, nil
}

// Person builds the Person entity for an author. The archive URL is the
// author's identity, so the same author yields the same @id everywhere.
func (b *Builder) Person(author content.Author) (*schema.Person, error) {
	name := markup.PlainText(author.DisplayName)
	if name == "" {
		return nil, missing("display name", "author", author.ID)
	}
	if author.ArchiveURL == "" {
		return nil, missing("archive URL", "author", author.ID)
	}

	person := schema.NewPerson()
	person.SetID(author.ArchiveURL)
	person.URL = author.ArchiveURL
	person.Name = name
	if b.config.IncludeAuthorEmail {
		person.Email = author.Email
	}

	return person, nil
}

// Organization builds the publisher entity for the site.
func (b *Builder) Organization(ctx context.Context, site content.Site) (*schema.Organization, error) {
	name := markup.PlainText(site.Name)
	if name == "" {
		return nil, missing("name", "site", site.RootURL)
	}
	if site.RootURL == "" {
		return nil, missing("root URL", "site", name)
	}

	org := schema.NewOrganization()
	org.SetID(site.RootURL)
	org.URL = site.RootURL
	org.Name = name
	org.LegalName = name
	if b.logos != nil {
		org.Logo = b.logos.Logo(ctx, site.RootURL)
	}

	return org, nil
}

// Image builds the ImageObject for a lead image. It returns nil when there
// is no image.
func (b *Builder) Image(img *content.Image) *schema.ImageObject {
	if img == nil || img.URL == "" {
		return nil
	}

	obj := schema.NewImageObject()
	obj.SetID(img.Permalink)
	obj.URL = img.URL
	obj.ContentURL = img.URL
	obj.Width = img.Width
	obj.Height = img.Height
	obj.Caption = markup.PlainText(img.Caption)

	return obj
}

// Rating builds the AggregateRating for an item from the rating source. It
// returns nil when no source is installed, the source fails, or the item
// has no votes. targetURL becomes the rating's @id when non-empty.
func (b *Builder) Rating(ctx context.Context, itemID, targetURL string) *schema.AggregateRating {
	if b.ratings == nil {
		return nil
	}

	votes, ok, err := b.ratings.Votes(ctx, itemID)
	if err != nil {
		slog.Warn("failed to read votes", "item", itemID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	return RatingFromVotes(votes, targetURL)
}

// RatingFromVotes converts aggregate votes to an AggregateRating. Zero
// votes or a zero sum yield nil: there is nothing to report.
func RatingFromVotes(votes content.Votes, targetURL string) *schema.AggregateRating {
	if votes.Count == 0 || votes.Sum == 0 {
		return nil
	}

	rating := schema.NewAggregateRating()
	rating.RatingValue = math.Round(float64(votes.Sum)/float64(votes.Count)*10) / 10
	rating.RatingCount = votes.Count
	if targetURL != "" {
		rating.SetID(targetURL)
	}

	return rating
}

func missing(field, kind, id string) error {
	return fmt.Errorf("%w: %s %q has no %s", ErrMissingRequiredData, kind, id, field)
}

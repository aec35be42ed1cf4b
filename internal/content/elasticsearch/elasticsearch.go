// Package elasticsearch reads content from two Elasticsearch indices:
// <index>-items holds posts and pages with their votes, <index>-authors
// holds author profiles. Site identity comes from configuration.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mfenderov/jsonld/internal/content"
)

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses []string
	Index     string // index name prefix, e.g. "jsonld"
	Username  string
	Password  string
	Site      content.Site
}

// Repository implements content.Repository and content.Ratings on
// Elasticsearch.
type Repository struct {
	es      *elasticsearch.Client
	items   string
	authors string
	site    content.Site
}

// itemDocument is the stored form of an item.
type itemDocument struct {
	content.Item
	Votes *content.Votes `json:"votes,omitempty"`
}

// New creates a new Elasticsearch repository.
func New(config Config) (*Repository, error) {
	if config.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Repository{
		es:      es,
		items:   config.Index + "-items",
		authors: config.Index + "-authors",
		site:    config.Site,
	}, nil
}

// Indices returns the item and author index names.
func (r *Repository) Indices() (items, authors string) {
	return r.items, r.authors
}

// Ping checks if Elasticsearch is available.
func (r *Repository) Ping(ctx context.Context) bool {
	res, err := r.es.Ping(r.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

var itemsMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"title": { "type": "text" },
			"permalink": { "type": "keyword" },
			"published_at": { "type": "date" },
			"modified_at": { "type": "date" },
			"categories": { "type": "keyword" },
			"comment_count": { "type": "integer" },
			"author_id": { "type": "keyword" },
			"lead_image": {
				"properties": {
					"permalink": { "type": "keyword" },
					"url": { "type": "keyword" },
					"width": { "type": "integer" },
					"height": { "type": "integer" },
					"caption": { "type": "text" }
				}
			},
			"votes": {
				"properties": {
					"count": { "type": "integer" },
					"sum": { "type": "integer" }
				}
			}
		}
	}
}`

var authorsMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"display_name": { "type": "text" },
			"archive_url": { "type": "keyword" },
			"email": { "type": "keyword" },
			"modified_at": { "type": "date" }
		}
	}
}`

// CreateIndices creates both indices with their mappings. Existing indices
// are left alone.
func (r *Repository) CreateIndices(ctx context.Context) error {
	if err := r.createIndex(ctx, r.items, itemsMapping); err != nil {
		return err
	}
	return r.createIndex(ctx, r.authors, authorsMapping)
}

func (r *Repository) createIndex(ctx context.Context, index, mapping string) error {
	res, err := r.es.Indices.Exists([]string{index}, r.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = r.es.Indices.Create(
		index,
		r.es.Indices.Create.WithContext(ctx),
		r.es.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", index, res.String())
	}

	return nil
}

// DeleteIndices removes both indices (for testing/cleanup).
func (r *Repository) DeleteIndices(ctx context.Context) error {
	res, err := r.es.Indices.Delete([]string{r.items, r.authors}, r.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// IndexItem stores an item with its votes. votes may be nil.
func (r *Repository) IndexItem(ctx context.Context, item content.Item, votes *content.Votes) error {
	return r.index(ctx, r.items, item.ID, itemDocument{Item: item, Votes: votes})
}

// IndexAuthor stores an author profile.
func (r *Repository) IndexAuthor(ctx context.Context, author content.Author) error {
	return r.index(ctx, r.authors, author.ID, author)
}

func (r *Repository) index(ctx context.Context, index, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := r.es.Index(
		index,
		bytes.NewReader(data),
		r.es.Index.WithContext(ctx),
		r.es.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document (status %d): %s", res.StatusCode, res.String())
	}

	return nil
}

// Refresh forces a refresh of both indices (useful for testing).
func (r *Repository) Refresh(ctx context.Context) error {
	res, err := r.es.Indices.Refresh(
		r.es.Indices.Refresh.WithContext(ctx),
		r.es.Indices.Refresh.WithIndex(r.items, r.authors),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// getResponse represents ES get response structure.
type getResponse[T any] struct {
	Found  bool `json:"found"`
	Source T    `json:"_source"`
}

// get fetches a document by id, returning content.ErrNotFound when it
// does not exist.
func get[T any](ctx context.Context, r *Repository, index, id string) (T, error) {
	var zero T

	res, err := r.es.Get(index, id, r.es.Get.WithContext(ctx))
	if err != nil {
		return zero, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return zero, fmt.Errorf("%s/%s: %w", index, id, content.ErrNotFound)
	}
	if res.IsError() {
		return zero, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse[T]
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	if !gr.Found {
		return zero, fmt.Errorf("%s/%s: %w", index, id, content.ErrNotFound)
	}

	return gr.Source, nil
}

// Item implements content.Repository.
func (r *Repository) Item(ctx context.Context, id string) (content.Item, error) {
	doc, err := get[itemDocument](ctx, r, r.items, id)
	if err != nil {
		return content.Item{}, err
	}
	return doc.Item, nil
}

// Author implements content.Repository.
func (r *Repository) Author(ctx context.Context, id string) (content.Author, error) {
	return get[content.Author](ctx, r, r.authors, id)
}

// Site implements content.Repository.
func (r *Repository) Site(ctx context.Context) (content.Site, error) {
	return r.site, nil
}

// Votes implements content.Ratings. Items without stored votes are unrated.
func (r *Repository) Votes(ctx context.Context, itemID string) (content.Votes, bool, error) {
	doc, err := get[itemDocument](ctx, r, r.items, itemID)
	if err != nil {
		return content.Votes{}, false, err
	}
	if doc.Votes == nil {
		return content.Votes{}, false, nil
	}
	return *doc.Votes, true, nil
}

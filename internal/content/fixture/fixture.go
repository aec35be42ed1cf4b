// Package fixture provides an in-memory content repository loaded from a
// YAML file. It implements both content.Repository and content.Ratings.
package fixture

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mfenderov/jsonld/internal/content"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a fixture.
type File struct {
	Site    content.Site     `yaml:"site"`
	Authors []content.Author `yaml:"authors"`
	Items   []Entry          `yaml:"items"`
}

// Entry is an item together with its visitor votes.
type Entry struct {
	content.Item `yaml:",inline"`
	Votes        *content.Votes `yaml:"votes,omitempty"`
}

// Repository serves content from memory.
type Repository struct {
	mu      sync.RWMutex
	site    content.Site
	items   map[string]content.Item
	authors map[string]content.Author
	votes   map[string]content.Votes
}

// New creates a repository from a decoded fixture.
func New(f File) *Repository {
	r := &Repository{
		site:    f.Site,
		items:   make(map[string]content.Item, len(f.Items)),
		authors: make(map[string]content.Author, len(f.Authors)),
		votes:   make(map[string]content.Votes),
	}
	for _, a := range f.Authors {
		r.authors[a.ID] = a
	}
	for _, e := range f.Items {
		r.items[e.ID] = e.Item
		if e.Votes != nil {
			r.votes[e.ID] = *e.Votes
		}
	}
	return r
}

// Parse decodes a YAML fixture.
func Parse(data []byte) (*Repository, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return New(f), nil
}

// Load reads and decodes the YAML fixture at path.
func Load(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return Parse(data)
}

// Item implements content.Repository.
func (r *Repository) Item(ctx context.Context, id string) (content.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return content.Item{}, fmt.Errorf("item %s: %w", id, content.ErrNotFound)
	}
	return item, nil
}

// Author implements content.Repository.
func (r *Repository) Author(ctx context.Context, id string) (content.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	author, ok := r.authors[id]
	if !ok {
		return content.Author{}, fmt.Errorf("author %s: %w", id, content.ErrNotFound)
	}
	return author, nil
}

// Site implements content.Repository.
func (r *Repository) Site(ctx context.Context) (content.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.site, nil
}

// Votes implements content.Ratings.
func (r *Repository) Votes(ctx context.Context, itemID string) (content.Votes, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.votes[itemID]
	return v, ok, nil
}

// PutItem adds or replaces an item.
func (r *Repository) PutItem(item content.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// PutAuthor adds or replaces an author.
func (r *Repository) PutAuthor(author content.Author) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authors[author.ID] = author
}

// SetVotes replaces the votes recorded for an item.
func (r *Repository) SetVotes(itemID string, votes content.Votes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes[itemID] = votes
}

// Export returns the repository contents in fixture layout.
func (r *Repository) Export() File {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f := File{Site: r.site}
	for _, a := range r.authors {
		f.Authors = append(f.Authors, a)
	}
	for id, item := range r.items {
		e := Entry{Item: item}
		if v, ok := r.votes[id]; ok {
			v := v
			e.Votes = &v
		}
		f.Items = append(f.Items, e)
	}
	return f
}

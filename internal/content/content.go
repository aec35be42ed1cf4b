// Package content defines the ports through which the host content system
// supplies posts, pages, authors, site identity and visitor votes.
package content

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an item or author does not exist.
var ErrNotFound = errors.New("not found")

// Item is a single post or static page.
type Item struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Permalink    string    `json:"permalink" yaml:"permalink"`
	PublishedAt  time.Time `json:"published_at" yaml:"published_at"`
	ModifiedAt   time.Time `json:"modified_at" yaml:"modified_at"`
	Categories   []string  `json:"categories,omitempty" yaml:"categories,omitempty"` // taxonomy terms, primary first
	CommentCount int       `json:"comment_count" yaml:"comment_count"`
	AuthorID     string    `json:"author_id" yaml:"author_id"`
	LeadImage    *Image    `json:"lead_image,omitempty" yaml:"lead_image,omitempty"`
}

// PrimaryCategory returns the first taxonomy term of the item.
func (i Item) PrimaryCategory() (string, bool) {
	if len(i.Categories) == 0 {
		return "", false
	}
	return i.Categories[0], true
}

// Image is the attachment used as an item's lead image.
type Image struct {
	Permalink string `json:"permalink" yaml:"permalink"` // attachment page
	URL       string `json:"url" yaml:"url"`             // direct file URL
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	Caption   string `json:"caption,omitempty" yaml:"caption,omitempty"`
}

// Author is the author of an item.
type Author struct {
	ID          string    `json:"id" yaml:"id"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	ArchiveURL  string    `json:"archive_url" yaml:"archive_url"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty"`
	ModifiedAt  time.Time `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`
}

// Site identifies the publishing site.
type Site struct {
	Name    string `json:"name" yaml:"name"`
	RootURL string `json:"root_url" yaml:"root_url"`
}

// Votes is the aggregate of visitor ratings for an item.
type Votes struct {
	Count int `json:"count" yaml:"count"`
	Sum   int `json:"sum" yaml:"sum"`
}

// Repository reads content from the host system.
type Repository interface {
	// Item returns the post or page with the given id.
	Item(ctx context.Context, id string) (Item, error)

	// Author returns the author with the given id.
	Author(ctx context.Context, id string) (Author, error)

	// Site returns the identity of the publishing site.
	Site(ctx context.Context) (Site, error)
}

// Ratings is an optional source of visitor votes.
type Ratings interface {
	// Votes returns the aggregate votes for an item. ok is false when the
	// item has never been rated.
	Votes(ctx context.Context, itemID string) (votes Votes, ok bool, err error)
}

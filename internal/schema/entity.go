// Package schema models the handful of schema.org types emitted as JSON-LD.
//
// Every type in the model is a closed variant with a fixed property set.
// Optional properties that hold their zero value are left out of the
// serialized output entirely; nothing is ever emitted as null.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Context is the JSON-LD context declared on the root node of a document.
const Context = "http://schema.org"

// Type is a schema.org type tag.
type Type string

const (
	TypeArticle         Type = "Article"
	TypeBlogPosting     Type = "BlogPosting"
	TypePerson          Type = "Person"
	TypeOrganization    Type = "Organization"
	TypeImageObject     Type = "ImageObject"
	TypeAggregateRating Type = "AggregateRating"
	TypeWebPage         Type = "WebPage"
)

// Valid reports whether t belongs to the supported set of types.
func (t Type) Valid() bool {
	switch t {
	case TypeArticle, TypeBlogPosting, TypePerson, TypeOrganization,
		TypeImageObject, TypeAggregateRating, TypeWebPage:
		return true
	}
	return false
}

// Entity is a node that can be serialized as a JSON-LD document or embedded
// in one.
type Entity interface {
	json.Marshaler
	EntityType() Type
	EntityID() string
	HasContext() bool
	AttachContext()
}

// Node holds the identity shared by all types: @type, @id and whether the
// node declares @context.
type Node struct {
	typ     Type
	id      string
	context bool
}

func newNode(t Type) Node {
	if !t.Valid() {
		panic(fmt.Sprintf("schema: unknown type %q", t))
	}
	return Node{typ: t}
}

// SetID sets the @id of the node. An empty id leaves @id out of the output.
func (n *Node) SetID(id string) { n.id = id }

// AttachContext marks the node as a document root.
func (n *Node) AttachContext() { n.context = true }

func (n *Node) EntityType() Type { return n.typ }
func (n *Node) EntityID() string { return n.id }
func (n *Node) HasContext() bool { return n.context }

func (n *Node) header() header {
	h := header{Type: string(n.typ), ID: n.id}
	if n.context {
		h.Context = Context
	}
	return h
}

// header is flattened into every variant's wire form.
type header struct {
	Context string `json:"@context,omitempty"`
	Type    string `json:"@type"`
	ID      string `json:"@id,omitempty"`
}

// Article is an Article or BlogPosting.
type Article struct {
	Node
	Headline         string
	DatePublished    time.Time
	DateModified     time.Time
	URL              string
	ArticleSection   string
	CommentCount     int
	Author           *Person
	Publisher        *Organization
	Image            *ImageObject
	MainEntityOfPage *Reference
	AggregateRating  *AggregateRating
}

// NewArticle returns an article of type Article or BlogPosting. Any other
// type is a programming error and panics.
func NewArticle(t Type) *Article {
	if t != TypeArticle && t != TypeBlogPosting {
		panic(fmt.Sprintf("schema: %q is not an article type", t))
	}
	return &Article{Node: newNode(t)}
}

func (a *Article) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		header
		Headline         string           `json:"headline,omitempty"`
		DatePublished    string           `json:"datePublished,omitempty"`
		DateModified     string           `json:"dateModified,omitempty"`
		URL              string           `json:"url,omitempty"`
		ArticleSection   string           `json:"articleSection,omitempty"`
		CommentCount     int              `json:"commentCount"`
		Author           *Person          `json:"author,omitempty"`
		Publisher        *Organization    `json:"publisher,omitempty"`
		Image            *ImageObject     `json:"image,omitempty"`
		MainEntityOfPage *Reference       `json:"mainEntityOfPage,omitempty"`
		AggregateRating  *AggregateRating `json:"aggregateRating,omitempty"`
	}{
		header:           a.header(),
		Headline:         a.Headline,
		DatePublished:    formatTime(a.DatePublished),
		DateModified:     formatTime(a.DateModified),
		URL:              a.URL,
		ArticleSection:   a.ArticleSection,
		CommentCount:     a.CommentCount,
		Author:           a.Author,
		Publisher:        a.Publisher,
		Image:            a.Image,
		MainEntityOfPage: a.MainEntityOfPage,
		AggregateRating:  a.AggregateRating,
	})
}

// Person is an author.
type Person struct {
	Node
	Name  string
	URL   string
	Email string
}

func NewPerson() *Person {
	return &Person{Node: newNode(TypePerson)}
}

func (p *Person) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		header
		Name  string `json:"name,omitempty"`
		URL   string `json:"url,omitempty"`
		Email string `json:"email,omitempty"`
	}{p.header(), p.Name, p.URL, p.Email})
}

// Organization is the publisher of a site.
type Organization struct {
	Node
	Name      string
	LegalName string
	URL       string
	Logo      *ImageObject
}

func NewOrganization() *Organization {
	return &Organization{Node: newNode(TypeOrganization)}
}

func (o *Organization) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		header
		Name      string       `json:"name,omitempty"`
		LegalName string       `json:"legalName,omitempty"`
		URL       string       `json:"url,omitempty"`
		Logo      *ImageObject `json:"logo,omitempty"`
	}{o.header(), o.Name, o.LegalName, o.URL, o.Logo})
}

// ImageObject is a lead image or a publisher logo.
type ImageObject struct {
	Node
	URL        string
	ContentURL string
	Width      int
	Height     int
	Caption    string
}

func NewImageObject() *ImageObject {
	return &ImageObject{Node: newNode(TypeImageObject)}
}

func (i *ImageObject) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		header
		URL        string `json:"url,omitempty"`
		ContentURL string `json:"contentUrl,omitempty"`
		Width      int    `json:"width,omitempty"`
		Height     int    `json:"height,omitempty"`
		Caption    string `json:"caption,omitempty"`
	}{i.header(), i.URL, i.ContentURL, i.Width, i.Height, i.Caption})
}

// AggregateRating summarizes visitor votes.
type AggregateRating struct {
	Node
	RatingValue float64
	RatingCount int
}

func NewAggregateRating() *AggregateRating {
	return &AggregateRating{Node: newNode(TypeAggregateRating)}
}

func (r *AggregateRating) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		header
		RatingValue float64 `json:"ratingValue"`
		RatingCount int     `json:"ratingCount"`
	}{r.header(), r.RatingValue, r.RatingCount})
}

// Reference is a bare {@type, @id} pointer to another node, as used by
// mainEntityOfPage.
type Reference struct {
	Node
}

func NewReference(t Type, id string) *Reference {
	ref := &Reference{Node: newNode(t)}
	ref.SetID(id)
	return ref
}

func (r *Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.header())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

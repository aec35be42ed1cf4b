package elasticsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mfenderov/jsonld/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeES answers document GETs from an in-memory map keyed by
// "/<index>/_doc/<id>".
func fakeES(t *testing.T, docs map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		source, ok := docs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"found": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"found": true, "_source": source})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestRepo(t *testing.T, server *httptest.Server) *Repository {
	t.Helper()
	repo, err := New(Config{
		Addresses: []string{server.URL},
		Index:     "jsonld",
		Site:      content.Site{Name: "Example Blog", RootURL: "https://example.com/"},
	})
	require.NoError(t, err)
	return repo
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Addresses: []string{"http://localhost:9200"}})
	assert.Error(t, err)

	repo, err := New(Config{Addresses: []string{"http://localhost:9200"}, Index: "blog"})
	require.NoError(t, err)
	items, authors := repo.Indices()
	assert.Equal(t, "blog-items", items)
	assert.Equal(t, "blog-authors", authors)
}

func TestRepository_Item(t *testing.T) {
	server := fakeES(t, map[string]any{
		"/jsonld-items/_doc/42": map[string]any{
			"id":            "42",
			"title":         "Hello World",
			"permalink":     "https://example.com/hello-world/",
			"published_at":  "2024-05-01T10:00:00Z",
			"modified_at":   "2024-05-02T08:15:00Z",
			"categories":    []string{"Go", "News"},
			"comment_count": 3,
			"author_id":     "7",
			"lead_image": map[string]any{
				"permalink": "https://example.com/hello-world/cover/",
				"url":       "https://example.com/uploads/cover.jpg",
				"width":     1200,
				"height":    630,
			},
			"votes": map[string]any{"count": 4, "sum": 18},
		},
		"/jsonld-items/_doc/43": map[string]any{
			"id":        "43",
			"title":     "About",
			"permalink": "https://example.com/about/",
			"author_id": "7",
		},
	})
	repo := newTestRepo(t, server)
	ctx := context.Background()

	item, err := repo.Item(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", item.Title)
	assert.Equal(t, time.Date(2024, 5, 2, 8, 15, 0, 0, time.UTC), item.ModifiedAt.UTC())
	assert.Equal(t, []string{"Go", "News"}, item.Categories)
	require.NotNil(t, item.LeadImage)
	assert.Equal(t, 1200, item.LeadImage.Width)

	votes, ok, err := repo.Votes(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, content.Votes{Count: 4, Sum: 18}, votes)

	_, ok, err = repo.Votes(ctx, "43")
	require.NoError(t, err)
	assert.False(t, ok, "no stored votes means unrated")

	_, err = repo.Item(ctx, "404")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestRepository_Author(t *testing.T) {
	server := fakeES(t, map[string]any{
		"/jsonld-authors/_doc/7": map[string]any{
			"id":           "7",
			"display_name": "Jane Doe",
			"archive_url":  "https://example.com/author/jane/",
		},
	})
	repo := newTestRepo(t, server)
	ctx := context.Background()

	author, err := repo.Author(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", author.DisplayName)
	assert.True(t, author.ModifiedAt.IsZero())

	_, err = repo.Author(ctx, "8")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestRepository_SiteFromConfig(t *testing.T) {
	repo := newTestRepo(t, fakeES(t, nil))

	site, err := repo.Site(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Example Blog", site.Name)
	assert.Equal(t, "https://example.com/", site.RootURL)
}

func TestRepository_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	_, err := newTestRepo(t, server).Item(context.Background(), "42")
	require.Error(t, err)
	assert.NotErrorIs(t, err, content.ErrNotFound)
}

func skipIfNoES(t *testing.T) {
	if os.Getenv("SKIP_ES_TESTS") == "1" {
		t.Skip("Skipping ES tests (SKIP_ES_TESTS=1)")
	}

	repo, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "test-skip-check",
	})
	if err != nil {
		t.Skipf("Skipping ES tests: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !repo.Ping(ctx) {
		t.Skip("Skipping ES tests: Elasticsearch not available")
	}
}

func TestIntegration_IndexAndRead(t *testing.T) {
	skipIfNoES(t)

	repo, err := New(Config{
		Addresses: []string{"http://localhost:9200"},
		Index:     "jsonld-test",
	})
	require.NoError(t, err)

	ctx := context.Background()
	repo.DeleteIndices(ctx)
	defer repo.DeleteIndices(ctx)

	require.NoError(t, repo.CreateIndices(ctx))
	require.NoError(t, repo.CreateIndices(ctx), "creating indices is idempotent")

	item := content.Item{
		ID:          "42",
		Title:       "Hello World",
		Permalink:   "https://example.com/hello-world/",
		PublishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		ModifiedAt:  time.Date(2024, 5, 2, 8, 15, 0, 0, time.UTC),
		AuthorID:    "7",
	}
	require.NoError(t, repo.IndexItem(ctx, item, &content.Votes{Count: 4, Sum: 18}))
	require.NoError(t, repo.IndexAuthor(ctx, content.Author{
		ID:          "7",
		DisplayName: "Jane Doe",
		ArchiveURL:  "https://example.com/author/jane/",
	}))
	require.NoError(t, repo.Refresh(ctx))

	got, err := repo.Item(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, item.Title, got.Title)
	assert.True(t, strings.HasPrefix(got.Permalink, "https://example.com/"))

	votes, ok, err := repo.Votes(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 18, votes.Sum)

	author, err := repo.Author(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", author.DisplayName)
}

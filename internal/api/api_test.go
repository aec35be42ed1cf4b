package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfenderov/jsonld/internal/assembler"
	"github.com/mfenderov/jsonld/internal/builder"
	"github.com/mfenderov/jsonld/internal/cache/memory"
	"github.com/mfenderov/jsonld/internal/content"
	"github.com/mfenderov/jsonld/internal/content/fixture"
	"github.com/mfenderov/jsonld/internal/markup"
	"github.com/mfenderov/jsonld/internal/pipeline"
	"github.com/mfenderov/jsonld/internal/schema"
)

func setupRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	repo := fixture.New(fixture.File{
		Site: content.Site{Name: "Example Blog", RootURL: "https://example.com/"},
		Authors: []content.Author{{
			ID:          "7",
			DisplayName: "Jane Doe",
			ArchiveURL:  "https://example.com/author/jane/",
		}},
		Items: []fixture.Entry{
			{Item: content.Item{
				ID:          "42",
				Title:       "Hello World",
				Permalink:   "https://example.com/hello-world/",
				PublishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				AuthorID:    "7",
			}},
			{Item: content.Item{ID: "50", Permalink: "https://example.com/untitled/", AuthorID: "7"}},
		},
	})

	store := memory.New()
	b := builder.New(repo, builder.StaticLogo{}, builder.Config{})
	p := pipeline.New(assembler.New(b, repo), store)
	return NewRouter(p), store
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetDocument(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/jsonld/post/42")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/ld+json", rec.Header().Get("Content-Type"))
	require.NoError(t, schema.Check(rec.Body.Bytes()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "BlogPosting", doc["@type"])

	rec = do(t, router, http.MethodGet, "/jsonld/author/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"@type": "Person"`)
}

func TestGetDocument_ScriptFormat(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/jsonld/page/42?format=script")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	scripts := markup.ExtractScripts(rec.Body.String())
	require.Len(t, scripts, 1)
	assert.NoError(t, schema.Check([]byte(scripts[0])))
}

func TestGetDocument_Errors(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown kind", "/jsonld/category/1", http.StatusBadRequest},
		{"missing item", "/jsonld/post/404", http.StatusNotFound},
		{"missing author", "/jsonld/author/8", http.StatusNotFound},
		{"missing title", "/jsonld/post/50", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestInvalidateDocument(t *testing.T) {
	router, store := setupRouter(t)

	require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/jsonld/post/42").Code)
	assert.Equal(t, 1, store.Len())

	rec := do(t, router, http.MethodDelete, "/jsonld/post/42")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, store.Len())

	rec = do(t, router, http.MethodDelete, "/jsonld/tag/42")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListenAndServe_Shutdown(t *testing.T) {
	router, _ := setupRouter(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, addr, router) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

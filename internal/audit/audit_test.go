package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `<script type="application/ld+json">{
    "@context": "http://schema.org",
    "@type": "BlogPosting",
    "@id": "https://example.com/hello/",
    "author": {"@type": "Person", "@id": "https://example.com/author/jane/"}
}</script>`

const nestedContextDoc = `<script type="application/ld+json">{
    "@context": "http://schema.org",
    "@type": "Article",
    "author": {"@context": "http://schema.org", "@type": "Person"}
}</script>`

func siteServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func byURL(report *Report) map[string]PageReport {
	pages := make(map[string]PageReport, len(report.Pages))
	for _, p := range report.Pages {
		pages[p.URL] = p
	}
	return pages
}

func TestAudit_ValidPage(t *testing.T) {
	server := siteServer(t, map[string]string{
		"/": `<html><head>` + validDoc + `</head><body>Hello</body></html>`,
	})

	report, err := New(Config{Delay: 10 * time.Millisecond}).Audit(t.Context(), server.URL)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)

	page := report.Pages[0]
	assert.True(t, page.OK(), "problems: %v", page.Problems)
	assert.Equal(t, []string{"BlogPosting"}, page.Types)
	assert.Empty(t, report.Failed())
}

func TestAudit_FollowsLinksAndFlagsProblems(t *testing.T) {
	server := siteServer(t, map[string]string{
		"/": `<html><head>` + validDoc + `</head><body>
			<a href="/nested">Nested</a>
			<a href="/broken">Broken</a>
			<a href="/plain">Plain</a>
			<a href="https://elsewhere.example/">Elsewhere</a>
		</body></html>`,
		"/nested": `<html><head>` + nestedContextDoc + `</head></html>`,
		"/broken": `<html><head><script type="application/ld+json">{"@type": </script></head></html>`,
		"/plain":  `<html><body>No structured data</body></html>`,
	})

	report, err := New(Config{
		Delay:         10 * time.Millisecond,
		MaxDepth:      2,
		FollowLinks:   true,
		RequireScript: true,
	}).Audit(t.Context(), server.URL)
	require.NoError(t, err)

	pages := byURL(report)
	require.Len(t, pages, 4)

	assert.True(t, pages[server.URL+"/"].OK())
	assert.False(t, pages[server.URL+"/nested"].OK())
	assert.Contains(t, pages[server.URL+"/nested"].Problems[0], "nested node declares @context")
	assert.False(t, pages[server.URL+"/broken"].OK())
	assert.Equal(t, []string{"no JSON-LD script element"}, pages[server.URL+"/plain"].Problems)

	assert.Len(t, report.Failed(), 3)
}

func TestAudit_PagesWithoutScriptAllowedByDefault(t *testing.T) {
	server := siteServer(t, map[string]string{
		"/": `<html><body>Nothing here</body></html>`,
	})

	report, err := New(Config{}).Audit(t.Context(), server.URL)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.True(t, report.Pages[0].OK())
	assert.Empty(t, report.Pages[0].Types)
}

func TestAudit_UnrecognizedType(t *testing.T) {
	server := siteServer(t, map[string]string{
		"/": `<html><head><script type="application/ld+json">{"@context": "http://schema.org", "@type": "Recipe"}</script></head></html>`,
	})

	report, err := New(Config{}).Audit(t.Context(), server.URL)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Equal(t, []string{"Recipe"}, report.Pages[0].Types)
	assert.False(t, report.Pages[0].OK())
}

func TestAudit_StartPageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal Error", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(Config{}).Audit(t.Context(), server.URL)
	assert.Error(t, err)
}

func TestAudit_Cancelled(t *testing.T) {
	server := siteServer(t, map[string]string{"/": `<html></html>`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Audit(ctx, server.URL)
	assert.Error(t, err)
}

func TestAudit_SetsUserAgent(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>Test</body></html>`))
	}))
	defer server.Close()

	_, err := New(Config{UserAgent: "jsonld-test/1.0"}).Audit(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "jsonld-test/1.0", receivedUA)
}

func TestAudit_NonStringType(t *testing.T) {
	server := siteServer(t, map[string]string{
		"/": `<html><head><script type="application/ld+json">{"@context": "http://schema.org", "@type": ["BlogPosting"]}</script></head></html>`,
	})

	report, err := New(Config{}).Audit(t.Context(), server.URL)
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)

	page := report.Pages[0]
	assert.Empty(t, page.Types)
	require.Len(t, page.Problems, 1)
	assert.Contains(t, page.Problems[0], "document 1:")
}

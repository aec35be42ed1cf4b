package builder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripProtocolScheme(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com/", "example.com/"},
		{"http://example.com/", "example.com/"},
		{"spdy://example.com/", "example.com/"},
		{"://example.com/", "example.com/"},
		{"//example.com/", "example.com/"},
		{"example.com/", "example.com/"},
		{"https://example.com/blog/http://x", "example.com/blog/http://x"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := StripProtocolScheme(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, StripProtocolScheme(got), "stripping twice equals stripping once")
		})
	}
}

func TestProviderLogo_URL(t *testing.T) {
	p := NewProviderLogo(ProviderConfig{}, nil)
	assert.Equal(t, "https://logo.clearbit.com/example.com", p.URL("https://example.com/"))
	assert.Equal(t, "https://logo.clearbit.com/example.com", p.URL("example.com"))
}

func TestProviderLogo_NoProbe(t *testing.T) {
	p := NewProviderLogo(ProviderConfig{Provider: "logos.invalid"}, nil)

	logo := p.Logo(context.Background(), "https://example.com/")
	require.NotNil(t, logo)
	assert.Equal(t, "https://logos.invalid/example.com", logo.EntityID())
	assert.Equal(t, "https://logos.invalid/example.com", logo.URL)
}

func TestProviderLogo_Probe(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/example.com" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewProviderLogo(ProviderConfig{
		Provider: strings.TrimPrefix(server.URL, "https://"),
		Probe:    true,
		Timeout:  time.Second,
	}, server.Client())

	ctx := context.Background()
	assert.NotNil(t, p.Logo(ctx, "https://example.com/"))
	assert.Nil(t, p.Logo(ctx, "https://unknown.example/"), "missing logo is omitted")
}

func TestProviderLogo_ProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := NewProviderLogo(ProviderConfig{
		Provider: strings.TrimPrefix(server.URL, "https://"),
		Probe:    true,
		Timeout:  50 * time.Millisecond,
	}, server.Client())

	start := time.Now()
	assert.Nil(t, p.Logo(context.Background(), "https://example.com/"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStaticLogo(t *testing.T) {
	assert.Nil(t, StaticLogo{}.Logo(context.Background(), "https://example.com/"))

	logo := StaticLogo{URL: "https://cdn.example.com/logo.png"}.Logo(context.Background(), "https://example.com/")
	require.NotNil(t, logo)
	assert.Equal(t, "https://cdn.example.com/logo.png", logo.URL)
}

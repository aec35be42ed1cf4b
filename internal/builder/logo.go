package builder

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mfenderov/jsonld/internal/schema"
)

// DefaultLogoProvider serves logos by bare domain name.
const DefaultLogoProvider = "logo.clearbit.com"

// LogoResolver finds the publisher logo for a site. A nil result means no
// logo is available.
type LogoResolver interface {
	Logo(ctx context.Context, siteRootURL string) *schema.ImageObject
}

// StaticLogo is a configured publisher logo.
type StaticLogo struct {
	URL string
}

// Logo implements LogoResolver.
func (s StaticLogo) Logo(ctx context.Context, siteRootURL string) *schema.ImageObject {
	if s.URL == "" {
		return nil
	}
	return logoObject(s.URL)
}

// ProviderConfig configures a ProviderLogo.
type ProviderConfig struct {
	Provider string        // host serving logos, DefaultLogoProvider if empty
	Probe    bool          // check the logo URL before using it
	Timeout  time.Duration // bound on the probe request
}

// ProviderLogo synthesizes a logo URL of the form https://<provider>/<domain>.
type ProviderLogo struct {
	config     ProviderConfig
	httpClient *http.Client
}

// NewProviderLogo creates a ProviderLogo. httpClient may be nil.
func NewProviderLogo(config ProviderConfig, httpClient *http.Client) *ProviderLogo {
	if config.Provider == "" {
		config.Provider = DefaultLogoProvider
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ProviderLogo{
		config:     config,
		httpClient: httpClient,
	}
}

// URL returns the provider URL of the logo for a site.
func (p *ProviderLogo) URL(siteRootURL string) string {
	domain := strings.TrimSuffix(StripProtocolScheme(siteRootURL), "/")
	return "https://" + p.config.Provider + "/" + domain
}

// Logo implements LogoResolver. When probing is enabled, an unreachable
// provider or a non-2xx answer yields no logo.
func (p *ProviderLogo) Logo(ctx context.Context, siteRootURL string) *schema.ImageObject {
	logoURL := p.URL(siteRootURL)
	if p.config.Probe && !p.reachable(ctx, logoURL) {
		return nil
	}
	return logoObject(logoURL)
}

func (p *ProviderLogo) reachable(ctx context.Context, logoURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, logoURL, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.Debug("logo provider unreachable", "url", logoURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("logo provider has no logo", "url", logoURL, "status", resp.StatusCode)
		return false
	}
	return true
}

func logoObject(logoURL string) *schema.ImageObject {
	logo := schema.NewImageObject()
	logo.SetID(logoURL)
	logo.URL = logoURL
	return logo
}

// schemePrefixes are checked in order; only the first match is stripped.
var schemePrefixes = []string{"https://", "http://", "spdy://", "://", "//"}

// StripProtocolScheme removes a leading URI scheme from url.
//
//	StripProtocolScheme("https://example.com/") == "example.com/"
func StripProtocolScheme(url string) string {
	for _, prefix := range schemePrefixes {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

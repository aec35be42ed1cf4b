// Package audit crawls a published site and checks the JSON-LD embedded in
// each page.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/mfenderov/jsonld/internal/markup"
	"github.com/mfenderov/jsonld/internal/schema"
)

// Config holds crawler configuration.
type Config struct {
	Delay         time.Duration
	MaxDepth      int
	FollowLinks   bool
	UserAgent     string
	Timeout       time.Duration
	RequireScript bool // report pages that embed no JSON-LD at all
}

// PageReport is the outcome of checking one page.
type PageReport struct {
	URL      string
	Types    []string // @type of each document, in page order
	Problems []string
}

// OK reports whether the page passed every check.
func (p PageReport) OK() bool {
	return len(p.Problems) == 0
}

// Report is the outcome of an audit.
type Report struct {
	StartURL string
	Pages    []PageReport
	Duration time.Duration
}

// Failed returns the pages with problems.
func (r *Report) Failed() []PageReport {
	var failed []PageReport
	for _, p := range r.Pages {
		if !p.OK() {
			failed = append(failed, p)
		}
	}
	return failed
}

// Auditor crawls pages and validates their structured data.
type Auditor struct {
	config Config
}

// New creates a new Auditor with the given configuration.
func New(config Config) *Auditor {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "jsonld-audit/1.0"
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 1
	}
	return &Auditor{config: config}
}

// Audit crawls from startURL, staying on its host, and checks every HTML
// page it reaches. The context can be used to cancel the crawl.
func (a *Auditor) Audit(ctx context.Context, startURL string) (*Report, error) {
	start := time.Now()
	report := &Report{StartURL: startURL}
	var mu sync.Mutex
	var cancelled bool

	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	c := colly.NewCollector(
		colly.MaxDepth(a.config.MaxDepth),
		colly.UserAgent(a.config.UserAgent),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       a.config.Delay,
		Parallelism: 2,
	})
	c.SetRequestTimeout(a.config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			slog.Debug("audit cancelled", "url", r.URL.String())
			r.Abort()
			mu.Lock()
			cancelled = true
			mu.Unlock()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "html") {
			slog.Debug("skipping non-HTML response", "url", r.Request.URL.String(), "content_type", contentType)
			return
		}

		page := a.checkPage(r.Request.URL.String(), string(r.Body))
		slog.Debug("audited page", "url", page.URL, "documents", len(page.Types), "problems", len(page.Problems))

		mu.Lock()
		report.Pages = append(report.Pages, page)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		slog.Debug("failed to fetch page", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	if a.config.FollowLinks {
		c.OnHTML("a[href]", func(e *colly.HTMLElement) {
			absoluteURL := e.Request.AbsoluteURL(e.Attr("href"))
			linkURL, err := url.Parse(absoluteURL)
			if err != nil {
				return
			}
			if linkURL.Host == parsedURL.Host {
				e.Request.Visit(absoluteURL)
			}
		})
	}

	if err := c.Visit(startURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", startURL, err)
	}
	c.Wait()

	report.Duration = time.Since(start)
	if cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// checkPage validates every JSON-LD script element of one page.
func (a *Auditor) checkPage(pageURL, body string) PageReport {
	page := PageReport{URL: pageURL}

	scripts := markup.ExtractScripts(body)
	if len(scripts) == 0 && a.config.RequireScript {
		page.Problems = append(page.Problems, "no JSON-LD script element")
	}

	for i, script := range scripts {
		if err := schema.Check([]byte(script)); err != nil {
			page.Problems = append(page.Problems, fmt.Sprintf("document %d: %v", i+1, err))
			continue
		}

		var head struct {
			Type string `json:"@type"`
		}
		if err := json.Unmarshal([]byte(script), &head); err != nil {
			page.Problems = append(page.Problems, fmt.Sprintf("document %d: %v", i+1, err))
			continue
		}
		page.Types = append(page.Types, head.Type)

		if !schema.Type(head.Type).Valid() {
			page.Problems = append(page.Problems, fmt.Sprintf("document %d: unrecognized @type %q", i+1, head.Type))
		}
	}

	return page
}

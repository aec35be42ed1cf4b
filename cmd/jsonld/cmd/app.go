package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/jsonld/internal/assembler"
	"github.com/mfenderov/jsonld/internal/builder"
	"github.com/mfenderov/jsonld/internal/cache"
	"github.com/mfenderov/jsonld/internal/cache/file"
	"github.com/mfenderov/jsonld/internal/cache/memory"
	"github.com/mfenderov/jsonld/internal/cache/redis"
	"github.com/mfenderov/jsonld/internal/cache/s3"
	"github.com/mfenderov/jsonld/internal/config"
	"github.com/mfenderov/jsonld/internal/content"
	"github.com/mfenderov/jsonld/internal/content/elasticsearch"
	"github.com/mfenderov/jsonld/internal/content/fixture"
	"github.com/mfenderov/jsonld/internal/pipeline"
)

// app is the set of components every command shares.
type app struct {
	pipeline *pipeline.Pipeline
	closers  []func() error
}

// Close releases connections held by the app.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
}

// newApp wires content, builder, cache and pipeline from configuration.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{}

	repo, ratings, err := newContent(cfg)
	if err != nil {
		return nil, err
	}

	store, err := a.newStore(ctx, cfg.Cache)
	if err != nil {
		slog.Warn("cache unavailable, serving uncached documents", "backend", cfg.Cache.Backend, "error", err)
		store = nil
	}

	b := builder.New(ratings, newLogoResolver(cfg.Publisher), builder.Config{
		IncludeAuthorEmail: cfg.Author.IncludeEmail,
	})
	a.pipeline = pipeline.New(assembler.New(b, repo), store)

	slog.Debug("app ready", "content", cfg.Content.Source, "cache", cfg.Cache.Backend)
	return a, nil
}

// newContent opens the configured content source. ratings is nil when
// ratings are disabled.
func newContent(cfg config.Config) (content.Repository, content.Ratings, error) {
	var repo interface {
		content.Repository
		content.Ratings
	}

	switch cfg.Content.Source {
	case config.SourceFixture:
		r, err := fixture.Load(cfg.Content.FixturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load content fixture: %w", err)
		}
		repo = r
	case config.SourceElasticsearch:
		r, err := newElasticsearch(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo = r
	default:
		return nil, nil, fmt.Errorf("unknown content source %q", cfg.Content.Source)
	}

	if !cfg.Ratings.Enabled {
		return repo, nil, nil
	}
	return repo, repo, nil
}

func newElasticsearch(cfg config.Config) (*elasticsearch.Repository, error) {
	repo, err := elasticsearch.New(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Index:     cfg.Elasticsearch.Index,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Site:      content.Site{Name: cfg.Site.Name, RootURL: cfg.Site.RootURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch repository: %w", err)
	}
	return repo, nil
}

func newLogoResolver(cfg config.Publisher) builder.LogoResolver {
	if cfg.LogoURL != "" {
		return builder.StaticLogo{URL: cfg.LogoURL}
	}
	return builder.NewProviderLogo(builder.ProviderConfig{
		Provider: cfg.LogoProvider,
		Probe:    cfg.LogoProbe,
		Timeout:  cfg.LogoTimeout,
	}, nil)
}

const storeConnectTimeout = 5 * time.Second

// newStore opens the configured cache backend. A nil store disables
// caching; newApp also falls back to it when the backend cannot be reached.
func (a *app) newStore(ctx context.Context, cfg config.Cache) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return memory.New(), nil
	case config.CacheFile:
		s, err := file.New(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create file cache: %w", err)
		}
		return s, nil
	case config.CacheRedis:
		s, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.CacheS3:
		s, err := s3.New(s3.Config{
			Endpoint:        cfg.S3.Endpoint,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UseSSL:          cfg.S3.UseSSL,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 cache: %w", err)
		}
		ensureCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
		defer cancel()
		if err := s.EnsureBucket(ensureCtx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// pageFlags are the --kind and --id flags shared by page commands.
type pageFlags struct {
	kind string
	id   string
}

func (f *pageFlags) register(flags interface {
	StringVar(p *string, name, value, usage string)
}) {
	flags.StringVar(&f.kind, "kind", string(assembler.KindPost), "Page kind: post, page or author")
	flags.StringVar(&f.id, "id", "", "Item id (posts, pages) or author id (author archives)")
}

func (f *pageFlags) page() (assembler.Page, error) {
	if f.id == "" {
		return assembler.Page{}, fmt.Errorf("--id is required")
	}
	kind, err := assembler.ParseKind(f.kind)
	if err != nil {
		return assembler.Page{}, err
	}
	return assembler.Page{Kind: kind, ID: f.id}, nil
}

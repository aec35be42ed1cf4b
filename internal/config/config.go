package config

import (
	"fmt"
	"time"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheS3     = "s3"
	CacheNone   = "none"
)

// Content sources.
const (
	SourceFixture       = "fixture"
	SourceElasticsearch = "elasticsearch"
)

// Config holds all application configuration.
type Config struct {
	Site          Site          `mapstructure:"site"`
	Content       Content       `mapstructure:"content"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Author        Author        `mapstructure:"author"`
	Publisher     Publisher     `mapstructure:"publisher"`
	Ratings       Ratings       `mapstructure:"ratings"`
	Cache         Cache         `mapstructure:"cache"`
	Audit         Audit         `mapstructure:"audit"`
	HTTP          HTTP          `mapstructure:"http"`
	MCP           MCP           `mapstructure:"mcp"`
}

// Site identifies the publishing site when the content source does not.
type Site struct {
	Name    string `mapstructure:"name"`
	RootURL string `mapstructure:"root_url"`
}

// Content selects where posts, pages and authors come from.
type Content struct {
	Source      string `mapstructure:"source"`
	FixturePath string `mapstructure:"fixture_path"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Author controls what is published about authors.
type Author struct {
	IncludeEmail bool `mapstructure:"include_email"`
}

// Publisher controls the publisher logo. LogoURL wins over the provider.
type Publisher struct {
	LogoURL      string        `mapstructure:"logo_url"`
	LogoProvider string        `mapstructure:"logo_provider"`
	LogoProbe    bool          `mapstructure:"logo_probe"`
	LogoTimeout  time.Duration `mapstructure:"logo_timeout"`
}

// Ratings toggles aggregate ratings.
type Ratings struct {
	Enabled bool `mapstructure:"enabled"`
}

// Cache selects and configures the document cache.
type Cache struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Redis   Redis  `mapstructure:"redis"`
	S3      S3     `mapstructure:"s3"`
}

// Redis holds Redis connection configuration.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// S3 holds S3/MinIO storage configuration.
type S3 struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Prefix          string `mapstructure:"prefix"`
}

// Audit holds crawler configuration for the audit command.
type Audit struct {
	Delay         time.Duration `mapstructure:"delay"`
	MaxDepth      int           `mapstructure:"max_depth"`
	FollowLinks   bool          `mapstructure:"follow_links"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RequireScript bool          `mapstructure:"require_script"`
}

// HTTP holds HTTP server configuration.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Content: Content{
			Source:      SourceFixture,
			FixturePath: "./config/content.yaml",
		},
		Elasticsearch: Elasticsearch{
			Addresses: []string{"http://localhost:9200"},
			Index:     "jsonld",
		},
		Author: Author{
			IncludeEmail: false,
		},
		Publisher: Publisher{
			LogoProvider: "logo.clearbit.com",
			LogoProbe:    true,
			LogoTimeout:  2 * time.Second,
		},
		Ratings: Ratings{
			Enabled: true,
		},
		Cache: Cache{
			Backend: CacheFile,
			Dir:     "./cache",
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "jsonld:",
			},
			S3: S3{
				Endpoint:        "localhost:9002",
				Bucket:          "jsonld",
				AccessKeyID:     "minioadmin",
				SecretAccessKey: "minioadmin",
				UseSSL:          false,
				Prefix:          "cache",
			},
		},
		Audit: Audit{
			Delay:       500 * time.Millisecond,
			MaxDepth:    2,
			FollowLinks: true,
			Timeout:     30 * time.Second,
			UserAgent:   "jsonld-audit/1.0",
		},
		HTTP: HTTP{
			Addr: ":8080",
		},
		MCP: MCP{
			Name:    "jsonld",
			Version: "1.0.0",
		},
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Content.Source {
	case SourceFixture:
		if c.Content.FixturePath == "" {
			return fmt.Errorf("content.fixture_path is required for the fixture source")
		}
	case SourceElasticsearch:
		if c.Site.Name == "" || c.Site.RootURL == "" {
			return fmt.Errorf("site.name and site.root_url are required for the elasticsearch source")
		}
	default:
		return fmt.Errorf("unknown content.source %q", c.Content.Source)
	}

	switch c.Cache.Backend {
	case CacheFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the file cache")
		}
	case CacheMemory, CacheRedis, CacheS3, CacheNone:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	return nil
}

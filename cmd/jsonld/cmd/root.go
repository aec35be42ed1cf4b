package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mfenderov/jsonld/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "jsonld",
	Short: "jsonld: schema.org structured data for posts, pages and authors",
	Long: `jsonld builds schema.org JSON-LD documents describing blog posts,
static pages and author archives, caches them until the content changes,
and serves them to page renderers.

Commands:
  render  Print the document for one page
  purge   Drop the cached document for one page
  import  Seed the Elasticsearch content indices from a fixture
  serve   Start the MCP server (or the HTTP server with --http)
  audit   Crawl a site and validate its embedded JSON-LD`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// envKeys are the settings that can be overridden from the environment,
// e.g. JSONLD_CACHE_BACKEND -> cache.backend.
var envKeys = []string{
	"site.name",
	"site.root_url",
	"content.source",
	"content.fixture_path",
	"elasticsearch.addresses",
	"elasticsearch.index",
	"elasticsearch.username",
	"elasticsearch.password",
	"author.include_email",
	"publisher.logo_url",
	"publisher.logo_provider",
	"publisher.logo_probe",
	"publisher.logo_timeout",
	"ratings.enabled",
	"cache.backend",
	"cache.dir",
	"cache.redis.addr",
	"cache.redis.password",
	"cache.redis.db",
	"cache.redis.prefix",
	"cache.s3.endpoint",
	"cache.s3.bucket",
	"cache.s3.access_key_id",
	"cache.s3.secret_access_key",
	"cache.s3.use_ssl",
	"cache.s3.prefix",
	"audit.delay",
	"audit.max_depth",
	"audit.follow_links",
	"audit.user_agent",
	"audit.require_script",
	"http.addr",
	"mcp.name",
	"mcp.version",
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/jsonld")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("JSONLD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, key := range envKeys {
		viper.BindEnv(key)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Handle special case: addresses as comma-separated string from env
	if addrs := os.Getenv("JSONLD_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
}

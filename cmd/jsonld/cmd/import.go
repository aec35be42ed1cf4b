package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/jsonld/internal/content/fixture"
	"github.com/spf13/cobra"
)

var importFixture string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Seed the Elasticsearch content indices from a fixture",
	Long: `Create the Elasticsearch item and author indices and index every
item, author and vote count of a YAML content fixture.

Example:
  jsonld import --fixture ./config/content.yaml`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFixture, "fixture", "", "YAML content fixture to import (default: content.fixture_path)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	path := importFixture
	if path == "" {
		path = cfg.Content.FixturePath
	}

	src, err := fixture.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}
	f := src.Export()

	if cfg.Site.RootURL != "" && cfg.Site.RootURL != f.Site.RootURL {
		slog.Warn("fixture site differs from configured site; the configured site is served",
			"fixture", f.Site.RootURL, "configured", cfg.Site.RootURL)
	}

	repo, err := newElasticsearch(cfg)
	if err != nil {
		return err
	}

	if err := repo.CreateIndices(ctx); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}

	for _, author := range f.Authors {
		if err := repo.IndexAuthor(ctx, author); err != nil {
			return fmt.Errorf("failed to index author %s: %w", author.ID, err)
		}
	}
	for _, entry := range f.Items {
		if err := repo.IndexItem(ctx, entry.Item, entry.Votes); err != nil {
			return fmt.Errorf("failed to index item %s: %w", entry.ID, err)
		}
	}

	if err := repo.Refresh(ctx); err != nil {
		slog.Warn("failed to refresh indices", "error", err)
	}

	items, authors := repo.Indices()
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items into %s and %d authors into %s\n",
		len(f.Items), items, len(f.Authors), authors)
	return nil
}

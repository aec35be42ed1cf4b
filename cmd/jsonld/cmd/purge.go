package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/jsonld/internal/pipeline"
	"github.com/spf13/cobra"
)

var purgePage pageFlags

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop the cached document for a page",
	Long: `Drop the cached JSON-LD document for a page so the next request
rebuilds it. Run it when content changes without a new modification time.

Example:
  jsonld purge --kind page --id 43`,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgePage.register(purgeCmd.Flags())
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	page, err := purgePage.page()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.pipeline.Invalidate(ctx, page); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Purged %s\n", pipeline.Key(page))
	return nil
}

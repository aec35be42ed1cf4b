package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/jsonld/internal/markup"
	"github.com/spf13/cobra"
)

var (
	renderPage   pageFlags
	renderScript bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the JSON-LD document for a page",
	Long: `Print the JSON-LD document for a post, page or author archive.

The document is served from the cache when the content has not changed
since it was built, otherwise it is rebuilt and cached.

Examples:
  # Document for post 42
  jsonld render --kind post --id 42

  # Script element ready to embed in a page
  jsonld render --kind author --id 7 --script`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderPage.register(renderCmd.Flags())
	renderCmd.Flags().BoolVar(&renderScript, "script", false, "Wrap the document in its script element")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	page, err := renderPage.page()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.pipeline.Document(ctx, page)
	if err != nil {
		return err
	}

	if renderScript {
		doc = markup.Script(doc)
	}
	fmt.Fprintln(cmd.OutOrStdout(), doc)
	return nil
}

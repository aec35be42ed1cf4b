package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/jsonld/internal/audit"
	"github.com/spf13/cobra"
)

var (
	auditURL      string
	auditMaxDepth int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Crawl a site and validate its embedded JSON-LD",
	Long: `Crawl a published site and check every JSON-LD script element:
each must be valid JSON with a single schema.org @context on its root.

Examples:
  jsonld audit --url https://example.com/
  jsonld audit --url https://example.com/ --max-depth 1`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditURL, "url", "", "Start URL of the crawl")
	auditCmd.Flags().IntVar(&auditMaxDepth, "max-depth", 0, "Maximum crawl depth (default: audit.max_depth)")
	auditCmd.MarkFlagRequired("url")
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig().Audit
	if auditMaxDepth > 0 {
		cfg.MaxDepth = auditMaxDepth
	}

	auditor := audit.New(audit.Config{
		Delay:         cfg.Delay,
		MaxDepth:      cfg.MaxDepth,
		FollowLinks:   cfg.FollowLinks,
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.Timeout,
		RequireScript: cfg.RequireScript,
	})

	report, err := auditor.Audit(ctx, auditURL)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, page := range report.Pages {
		status := "ok"
		if !page.OK() {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%-4s %s %v\n", status, page.URL, page.Types)
		for _, p := range page.Problems {
			fmt.Fprintf(out, "     - %s\n", p)
		}
	}

	failed := report.Failed()
	fmt.Fprintf(out, "\nTotal: %d pages, %d with problems in %v\n", len(report.Pages), len(failed), report.Duration)

	if len(failed) > 0 {
		return fmt.Errorf("%d pages have invalid structured data", len(failed))
	}
	return nil
}

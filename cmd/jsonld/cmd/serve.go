package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/jsonld/internal/api"
	"github.com/mfenderov/jsonld/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	serveHTTP bool
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server for structured data.

The server communicates via stdio and provides two tools:
  - get_structured_data: Get the JSON-LD document of a post, page or author archive
  - purge_structured_data: Drop the cached document of a page

With --http an HTTP server is started instead:
  GET    /jsonld/{kind}/{id}   document (?format=script for the script element)
  DELETE /jsonld/{kind}/{id}   drop the cached document
  GET    /healthz

Example:
  jsonld serve
  jsonld serve --http --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Serve HTTP instead of MCP over stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default: http.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveHTTP {
		addr := serveAddr
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		return api.ListenAndServe(ctx, addr, api.NewRouter(a.pipeline))
	}

	server := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, a.pipeline)

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}

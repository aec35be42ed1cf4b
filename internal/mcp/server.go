package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/jsonld/internal/assembler"
	"github.com/mfenderov/jsonld/internal/markup"
	"github.com/mfenderov/jsonld/internal/pipeline"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Server exposes the document pipeline as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	pipeline  *pipeline.Pipeline
}

// NewServer creates a new MCP server with structured-data tools.
func NewServer(config Config, p *pipeline.Pipeline) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		pipeline:  p,
	}

	// Register get_structured_data tool
	getTool := mcp.NewTool("get_structured_data",
		mcp.WithDescription("Get the schema.org JSON-LD document describing a post, page or author archive."),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Page kind"),
			mcp.Enum(string(assembler.KindPost), string(assembler.KindPage), string(assembler.KindAuthor)),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Item id for posts and pages, author id for author archives"),
		),
		mcp.WithString("format",
			mcp.Description("json (default) or script for the embeddable script element"),
		),
	)
	mcpServer.AddTool(getTool, s.getHandler)

	// Register purge_structured_data tool
	purgeTool := mcp.NewTool("purge_structured_data",
		mcp.WithDescription("Drop the cached JSON-LD document of a page so the next request rebuilds it."),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Page kind"),
			mcp.Enum(string(assembler.KindPost), string(assembler.KindPage), string(assembler.KindAuthor)),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Item or author id"),
		),
	)
	mcpServer.AddTool(purgeTool, s.purgeHandler)

	return s
}

// getHandler handles the get_structured_data tool call.
func (s *Server) getHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, errResult := pageFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}

	doc, err := s.pipeline.Document(ctx, page)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get structured data failed: %v", err)), nil
	}

	if req.GetString("format", "json") == "script" {
		return mcp.NewToolResultText(markup.Script(doc)), nil
	}
	return mcp.NewToolResultText(doc), nil
}

// purgeHandler handles the purge_structured_data tool call.
func (s *Server) purgeHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, errResult := pageFromRequest(req)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.pipeline.Invalidate(ctx, page); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("purge failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("purged %s", pipeline.Key(page))), nil
}

func pageFromRequest(req mcp.CallToolRequest) (assembler.Page, *mcp.CallToolResult) {
	rawKind, err := req.RequireString("kind")
	if err != nil {
		return assembler.Page{}, mcp.NewToolResultError("kind parameter is required")
	}
	id, err := req.RequireString("id")
	if err != nil {
		return assembler.Page{}, mcp.NewToolResultError("id parameter is required")
	}

	kind, err := assembler.ParseKind(rawKind)
	if err != nil {
		return assembler.Page{}, mcp.NewToolResultError(err.Error())
	}
	return assembler.Page{Kind: kind, ID: id}, nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

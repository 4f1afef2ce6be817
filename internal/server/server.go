// Package server exposes repository outlines and graphs as MCP tools.
package server

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"repoviewer/internal/outline"
	"repoviewer/internal/scanner"
)

const defaultSystemPrompt = `# repoviewer

repoviewer outlines a repository (files, classes, methods and functions with
their line spans) and renders the outline as a Graphviz DOT document.

- Use "outline" to get the structure of a repository as JSON.
- Use "outline_file" for a single source file.
- Use "visualize" to get the DOT document for a repository. Every cluster and
  node carries a URL attribute that opens the source line in an editor.
- Use "render_outline" to render an outline JSON document you already have.

Paths must be absolute directories (or files for "outline_file").
`

// Service is what the tools need from the application.
type Service interface {
	Outline(ctx context.Context, path string) ([]outline.Module, error)
	OutlineFile(ctx context.Context, path string) (outline.Module, error)
	Graph(ctx context.Context, path string) (string, error)
	Render(modules []outline.Module) string
	Languages() []scanner.LanguageInfo
}

// Server is the MCP front end of repoviewer.
type Server struct {
	mcpServer    *mcp.Server
	svc          Service
	systemPrompt string
	// schemas holds the argument schema of each registered tool as JSON.
	schemas map[string]string
}

// New registers the tools and resources for svc.
func New(svc Service, version string) *Server {
	s := &Server{
		svc:          svc,
		systemPrompt: defaultSystemPrompt,
		schemas:      make(map[string]string),
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "repoviewer",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: s.systemPrompt,
	})
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdin/stdout until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[mcp] Serving on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	guidelinesURI = "repoviewer://usage-guidelines"
	languagesURI  = "repoviewer://languages"
	schemaPrefix  = "repoviewer://schemas/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         guidelinesURI,
		Name:        "Usage Guidelines",
		Description: "How to use the repoviewer tools and which files they outline",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return contents(guidelinesURI, "text/markdown", s.guidelines()), nil
	})

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         languagesURI,
		Name:        "Languages",
		Description: "Outline languages, their file extensions and whether they are enabled",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.MarshalIndent(s.svc.Languages(), "", "  ")
		if err != nil {
			return nil, err
		}
		return contents(languagesURI, "application/json", string(data)), nil
	})

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaPrefix + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		name := strings.TrimPrefix(req.Params.URI, schemaPrefix)
		schema, ok := s.schemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", name)
		}
		return contents(req.Params.URI, "application/schema+json", schema), nil
	})
}

// guidelines is the system prompt followed by the files a scan will pick up.
func (s *Server) guidelines() string {
	var b strings.Builder
	b.WriteString(s.systemPrompt)
	b.WriteString("\n## Enabled languages\n\n")
	n := 0
	for _, l := range s.svc.Languages() {
		if !l.Enabled {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", l.Name, strings.Join(l.Extensions, ", "))
		n++
	}
	if n == 0 {
		b.WriteString("None. Scans return no modules.\n")
	}
	return b.String()
}

func contents(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

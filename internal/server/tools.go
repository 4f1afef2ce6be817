package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"repoviewer/internal/outline"
	"repoviewer/internal/scanner"
)

// Arguments structs

type OutlineArgs struct {
	Path string `json:"path" jsonschema:"absolute path of the repository directory to outline"`
}

type OutlineFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"absolute path of the source file to outline"`
}

type VisualizeArgs struct {
	Path string `json:"path" jsonschema:"absolute path of the repository directory to render"`
}

type RenderOutlineArgs struct {
	Outline string `json:"outline" jsonschema:"outline JSON as returned by the outline tool"`
}

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        "outline",
		Description: "Returns the files, classes, methods and functions of a repository as JSON",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args OutlineArgs) (*mcp.CallToolResult, any, error) {
		modules, err := s.svc.Outline(ctx, args.Path)
		if err != nil {
			return scanErrorResult(args.Path, err), nil, nil
		}
		text, err := encode(modules)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "outline_file",
		Description: "Returns the classes, methods and functions of one source file as JSON",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args OutlineFileArgs) (*mcp.CallToolResult, any, error) {
		m, err := s.svc.OutlineFile(ctx, args.FilePath)
		if err != nil {
			return errorResult(fmt.Sprintf("Outline failed: %v", err)), nil, nil
		}
		text, err := encode([]outline.Module{m})
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "visualize",
		Description: "Renders a repository outline as a Graphviz DOT document with links to source lines",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args VisualizeArgs) (*mcp.CallToolResult, any, error) {
		doc, err := s.svc.Graph(ctx, args.Path)
		if err != nil {
			return scanErrorResult(args.Path, err), nil, nil
		}
		return textResult(doc), nil, nil
	})

	addTool(s, &mcp.Tool{
		Name:        "render_outline",
		Description: "Renders an outline JSON document as a Graphviz DOT document",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RenderOutlineArgs) (*mcp.CallToolResult, any, error) {
		modules, err := outline.Decode(strings.NewReader(args.Outline))
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(s.svc.Render(modules)), nil, nil
	})
}

// addTool registers a tool and records the JSON schema of its arguments for
// the schema resource.
func addTool[In any](s *Server, tool *mcp.Tool, handler mcp.ToolHandlerFor[In, any]) {
	mcp.AddTool(s.mcpServer, tool, handler)

	schema, err := jsonschema.For[In](nil)
	if err != nil {
		log.Printf("[mcp] Warning: no schema for %s: %v", tool.Name, err)
		return
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Printf("[mcp] Warning: no schema for %s: %v", tool.Name, err)
		return
	}
	s.schemas[tool.Name] = string(data)
}

func scanErrorResult(path string, err error) *mcp.CallToolResult {
	if errors.Is(err, scanner.ErrInvalidPath) {
		return errorResult(fmt.Sprintf("Invalid repository path: %s", path))
	}
	log.Printf("[mcp] Error: scanning %s failed: %v", path, err)
	return errorResult(fmt.Sprintf("Scan failed: %v", err))
}

func encode(modules []outline.Module) (string, error) {
	var buf bytes.Buffer
	if err := outline.Encode(&buf, modules); err != nil {
		return "", err
	}
	return buf.String(), nil
}

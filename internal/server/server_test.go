package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoviewer/internal/app"
	"repoviewer/internal/config"
	"repoviewer/internal/outline"
	"repoviewer/internal/scanner"
)

const sample = `
class TestClass:
    def method1(self):
        pass

def standalone():
    pass
`

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	a, err := app.New(cfg, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	ct, st := mcp.NewInMemoryTransports()
	ss, err := New(a, "test").Connect(ctx, st)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func writeRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_file.py"), []byte(sample), 0644))
	return dir
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	cs := connect(t)
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"outline", "outline_file", "visualize", "render_outline"}, names)

	resources, err := cs.ListResources(context.Background(), nil)
	require.NoError(t, err)
	var uris []string
	for _, r := range resources.Resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{guidelinesURI, languagesURI}, uris)
}

func TestOutlineTool(t *testing.T) {
	cs := connect(t)
	dir := writeRepo(t)

	text, isErr := call(t, cs, "outline", map[string]any{"path": dir})
	require.False(t, isErr, text)

	modules, err := outline.DecodeBytes([]byte(text))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "test_file.py", modules[0].Base())
	require.Len(t, modules[0].Classes, 1)
	assert.Equal(t, "TestClass", modules[0].Classes[0].Name)
	assert.Equal(t, 2, modules[0].Classes[0].Line)
	require.Len(t, modules[0].Functions, 1)
	assert.Equal(t, "standalone", modules[0].Functions[0].Name)
}

func TestOutlineFileTool(t *testing.T) {
	cs := connect(t)
	dir := writeRepo(t)

	text, isErr := call(t, cs, "outline_file", map[string]any{"file_path": filepath.Join(dir, "test_file.py")})
	require.False(t, isErr, text)

	modules, err := outline.DecodeBytes([]byte(text))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "method1", modules[0].Classes[0].Methods[0].Name)

	_, isErr = call(t, cs, "outline_file", map[string]any{"file_path": filepath.Join(dir, "missing.py")})
	assert.True(t, isErr)
}

func TestVisualizeTool(t *testing.T) {
	cs := connect(t)
	dir := writeRepo(t)

	text, isErr := call(t, cs, "visualize", map[string]any{"path": dir})
	require.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "digraph G {"))
	assert.Contains(t, text, `label="TestClass"`)
	assert.Contains(t, text, `func_0_0 [label="standalone"`)
}

func TestVisualizeInvalidPath(t *testing.T) {
	cs := connect(t)

	text, isErr := call(t, cs, "visualize", map[string]any{"path": "/invalid/path"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Invalid repository path")
}

func TestRenderOutlineTool(t *testing.T) {
	cs := connect(t)

	doc := `[{"filename":"/r/a.py","classes":[],"functions":[{"name":"f","line_number":1,"end_line_number":2}]}]`
	text, isErr := call(t, cs, "render_outline", map[string]any{"outline": doc})
	require.False(t, isErr, text)
	assert.Contains(t, text, `URL="cursor://file/r/a.py:1"`)

	text, isErr = call(t, cs, "render_outline", map[string]any{"outline": `{"filename":"x"}`})
	assert.True(t, isErr)
	assert.Contains(t, text, "malformed outline")
}

func TestResources(t *testing.T) {
	cs := connect(t)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: guidelinesURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "render_outline")
	assert.Contains(t, res.Contents[0].Text, "- python: .py\n")
	assert.NotContains(t, res.Contents[0].Text, "- go:")

	res, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: schemaPrefix + "visualize"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"path"`)

	_, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: schemaPrefix + "nope"})
	assert.Error(t, err)
}

func TestSchemasRecordedPerTool(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	a, err := app.New(cfg, app.Options{})
	require.NoError(t, err)
	defer a.Close()

	s := New(a, "test")
	assert.Len(t, s.schemas, 4)
	assert.Contains(t, s.schemas["render_outline"], `"outline"`)
	assert.Contains(t, s.schemas["outline_file"], `"file_path"`)
}

func TestLanguagesResource(t *testing.T) {
	cs := connect(t)

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: languagesURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var langs []scanner.LanguageInfo
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &langs))
	enabled := map[string]bool{}
	for _, l := range langs {
		enabled[l.Name] = l.Enabled
	}
	assert.True(t, enabled["python"])
	assert.False(t, enabled["go"])
}

package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

const testRoot = "/ws"

func newTestDispatcher(t *testing.T, files map[string]string) *dispatch.Dispatcher {
	t.Helper()
	a, err := shellsense.New()
	require.NoError(t, err)
	ctx := context.Background()
	for name, src := range files {
		_, err := a.Analyze(ctx, shellsense.PathToURI(filepath.Join(testRoot, name)), src)
		require.NoError(t, err)
	}
	d := dispatch.New(a)
	t.Cleanup(d.Close)
	return d
}

func call(t *testing.T, tool Tool, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = tool.GetTool().Name
	req.Params.Arguments = args
	res, err := tool.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

var workspace = map[string]string{
	"lib.sh":  "build() {\n  local target=$1\n  echo \"$target\"\n}\n",
	"main.sh": "source lib.sh\nbuild linux\nbuild darwin\n",
}

func TestAll_ToolNames(t *testing.T) {
	d := newTestDispatcher(t, nil)
	var names []string
	for _, tool := range All(d, Config{}) {
		names = append(names, tool.GetTool().Name)
	}
	assert.Equal(t, []string{
		"shellsense.find_definition",
		"shellsense.find_references",
		"shellsense.document_symbols",
		"shellsense.search_symbols",
		"shellsense.word_at_point",
		"shellsense.diagnostics",
	}, names)
}

func TestFindDefinitionTool(t *testing.T) {
	d := newTestDispatcher(t, workspace)
	tool := NewFindDefinitionTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[QueryResult[SymbolResult]](t, call(t, tool, map[string]any{"name": "build"}))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, SymbolResult{
		Name:      "build",
		Kind:      "function",
		File:      "lib.sh",
		Range:     RangeResult{0, 0, 3, 1},
		NameRange: RangeResult{0, 0, 0, 5},
	}, out.Results[0])

	out = decode[QueryResult[SymbolResult]](t, call(t, tool, map[string]any{"name": "nope"}))
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Results)

	res := call(t, tool, map[string]any{})
	assert.True(t, res.IsError)
}

func TestFindDefinitionTool_RedefinitionsAndPrefixes(t *testing.T) {
	d := newTestDispatcher(t, map[string]string{
		"redef.sh": "build() { :; }\nbuilder=1\nbuild() { echo 2; }\n",
	})
	tool := NewFindDefinitionTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[QueryResult[SymbolResult]](t, call(t, tool, map[string]any{"name": "build"}))
	require.Equal(t, 2, out.Count)
	assert.Equal(t, 0, out.Results[0].Range.StartLine)
	assert.Equal(t, 2, out.Results[1].Range.StartLine)
	for _, r := range out.Results {
		assert.Equal(t, "build", r.Name)
	}
}

func TestFindReferencesTool(t *testing.T) {
	d := newTestDispatcher(t, workspace)
	tool := NewFindReferencesTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[QueryResult[ReferenceResult]](t, call(t, tool, map[string]any{"name": "build"}))
	assert.Equal(t, 3, out.Count)

	out = decode[QueryResult[ReferenceResult]](t, call(t, tool, map[string]any{"name": "target", "file_path": "lib.sh"}))
	require.Equal(t, 2, out.Count)
	assert.True(t, out.Results[0].IsDeclaration)
	assert.False(t, out.Results[1].IsDeclaration)
}

func TestDocumentSymbolsTool(t *testing.T) {
	d := newTestDispatcher(t, workspace)
	tool := NewDocumentSymbolsTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[QueryResult[SymbolResult]](t, call(t, tool, map[string]any{"file_path": "lib.sh"}))
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "build", out.Results[0].Name)
	assert.Equal(t, "target", out.Results[1].Name)
	assert.Equal(t, "build", out.Results[1].Container)

	res := call(t, tool, map[string]any{"file_path": "missing.sh"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not indexed")
}

func TestSearchSymbolsTool(t *testing.T) {
	d := newTestDispatcher(t, workspace)
	tool := NewSearchSymbolsTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[QueryResult[SymbolResult]](t, call(t, tool, map[string]any{"prefix": "ta"}))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "target", out.Results[0].Name)

	out = decode[QueryResult[SymbolResult]](t, call(t, tool, map[string]any{"limit": float64(1)}))
	assert.Equal(t, 2, out.Count)
	assert.Len(t, out.Results, 1)

	res := call(t, tool, map[string]any{"limit": float64(0)})
	assert.True(t, res.IsError)
}

func TestWordAtPointTool(t *testing.T) {
	d := newTestDispatcher(t, workspace)
	tool := NewWordAtPointTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[WordResult](t, call(t, tool, map[string]any{
		"file_path": "main.sh", "line": float64(1), "character": float64(2),
	}))
	assert.Equal(t, "build", out.Word)
	require.Len(t, out.Definitions, 1)
	assert.Equal(t, "lib.sh", out.Definitions[0].File)

	res := call(t, tool, map[string]any{
		"file_path": "main.sh", "line": float64(40), "character": float64(0),
	})
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "No word at")
}

func TestDiagnosticsTool(t *testing.T) {
	d := newTestDispatcher(t, map[string]string{"broken.sh": "if true; then\n"})
	tool := NewDiagnosticsTool(d, Config{WorkspaceRoot: testRoot})

	out := decode[QueryResult[DiagnosticResult]](t, call(t, tool, map[string]any{"file_path": "broken.sh"}))
	require.NotZero(t, out.Count)
	assert.NotEmpty(t, out.Results[0].Message)
	assert.Contains(t, []string{"error", "warning"}, out.Results[0].Severity)
}

func TestFileURI(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		root     string
		expected string
	}{
		{"absolute path", "/ws/a.sh", "/other", "file:///ws/a.sh"},
		{"relative path", "bin/a.sh", "/ws", "file:///ws/bin/a.sh"},
		{"already a URI", "file:///ws/a.sh", "/other", "file:///ws/a.sh"},
		{"path with space", "My Project/a.sh", "/ws", "file:///ws/My%20Project/a.sh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fileURI(tt.filePath, tt.root))
		})
	}
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, filepath.Join("bin", "a.sh"), relativePath("file:///ws/bin/a.sh", "/ws"))
	assert.Equal(t, "/ws/a.sh", relativePath("file:///ws/a.sh", ""))
}

func TestNewServer(t *testing.T) {
	d := newTestDispatcher(t, nil)
	s := NewServer("shellsense", "test", d, Config{})
	assert.NotNil(t, s)
}

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

// DiagnosticsTool reports syntax problems in one file
type DiagnosticsTool struct {
	dispatch *dispatch.Dispatcher
	config   Config
}

// NewDiagnosticsTool creates a new diagnostics tool
func NewDiagnosticsTool(d *dispatch.Dispatcher, cfg Config) *DiagnosticsTool {
	return &DiagnosticsTool{dispatch: d, config: cfg}
}

// GetTool returns the MCP tool definition
func (t *DiagnosticsTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolDiagnostics,
		mcp.WithDescription("Report syntax errors and missing tokens in a shell script"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the script")),
	)
}

// Handle processes the tool request
func (t *DiagnosticsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath := mcp.ParseString(req, "file_path", "")
	if filePath == "" {
		return mcp.NewToolResultError("file_path parameter is required"), nil
	}
	uri := fileURI(filePath, t.config.WorkspaceRoot)

	var results []DiagnosticResult
	var tracked bool
	t.dispatch.Do(func(a *shellsense.Analyzer) {
		tracked = a.Has(uri)
		for _, d := range a.Diagnostics(uri) {
			results = append(results, DiagnosticResult{
				Severity: d.Severity.String(),
				Message:  d.Message,
				Range:    newRange(d.Range),
			})
		}
	})
	if !tracked {
		return mcp.NewToolResultError(fmt.Sprintf("File is not indexed: %s", filePath)), nil
	}
	return jsonResult(newQueryResult(filePath, results))
}

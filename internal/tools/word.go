package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

// WordAtPointTool returns the token under a position
type WordAtPointTool struct {
	dispatch *dispatch.Dispatcher
	config   Config
}

// NewWordAtPointTool creates a new word-at-point tool
func NewWordAtPointTool(d *dispatch.Dispatcher, cfg Config) *WordAtPointTool {
	return &WordAtPointTool{dispatch: d, config: cfg}
}

// GetTool returns the MCP tool definition
func (t *WordAtPointTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolWordAtPoint,
		mcp.WithDescription("Return the shell token at a position, with its definitions"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the script")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Line number (0-based)")),
		mcp.WithNumber("character", mcp.Required(), mcp.Description("Byte column (0-based)")),
	)
}

// WordResult is the token at a point and where it is declared.
type WordResult struct {
	Word        string           `json:"word"`
	Definitions []LocationResult `json:"definitions"`
}

// Handle processes the tool request
func (t *WordAtPointTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath := mcp.ParseString(req, "file_path", "")
	if filePath == "" {
		return mcp.NewToolResultError("file_path parameter is required"), nil
	}
	line := int(mcp.ParseFloat64(req, "line", 0))
	character := int(mcp.ParseFloat64(req, "character", 0))
	uri := fileURI(filePath, t.config.WorkspaceRoot)

	var result WordResult
	var found bool
	t.dispatch.Do(func(a *shellsense.Analyzer) {
		result.Word, found = a.WordAtPoint(uri, line, character)
		if !found {
			return
		}
		result.Definitions = []LocationResult{}
		for _, loc := range a.FindDefinition(result.Word) {
			result.Definitions = append(result.Definitions, LocationResult{
				File:  relativePath(loc.URI, t.config.WorkspaceRoot),
				Range: newRange(loc.Range),
			})
		}
	})
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No word at %s:%d:%d", filePath, line, character)), nil
	}
	return jsonResult(result)
}

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

// FindDefinitionTool handles definition lookups by name
type FindDefinitionTool struct {
	dispatch *dispatch.Dispatcher
	config   Config
}

// NewFindDefinitionTool creates a new definition tool
func NewFindDefinitionTool(d *dispatch.Dispatcher, cfg Config) *FindDefinitionTool {
	return &FindDefinitionTool{dispatch: d, config: cfg}
}

// GetTool returns the MCP tool definition
func (t *FindDefinitionTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolFindDefinition,
		mcp.WithDescription("Find every declaration of a shell function or variable by name across the workspace"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Exact function or variable name")),
	)
}

// Handle processes the tool request
func (t *FindDefinitionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := mcp.ParseString(req, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	var results []SymbolResult
	t.dispatch.Do(func(a *shellsense.Analyzer) {
		// Search is a prefix match in definition order; keep exact names.
		for _, sym := range a.Search(name) {
			if sym.Name == name {
				results = append(results, newSymbolResult(sym, t.config.WorkspaceRoot))
			}
		}
	})
	return jsonResult(newQueryResult(name, results))
}

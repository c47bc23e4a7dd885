package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

// FindReferencesTool lists every occurrence of a name
type FindReferencesTool struct {
	dispatch *dispatch.Dispatcher
	config   Config
}

// NewFindReferencesTool creates a new references tool
func NewFindReferencesTool(d *dispatch.Dispatcher, cfg Config) *FindReferencesTool {
	return &FindReferencesTool{dispatch: d, config: cfg}
}

// GetTool returns the MCP tool definition
func (t *FindReferencesTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolFindReferences,
		mcp.WithDescription("Find every occurrence of a shell function or variable name, declarations included"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Exact function or variable name")),
		mcp.WithString("file_path", mcp.Description("Limit results to this file")),
	)
}

// Handle processes the tool request
func (t *FindReferencesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := mcp.ParseString(req, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	filePath := mcp.ParseString(req, "file_path", "")

	var results []ReferenceResult
	t.dispatch.Do(func(a *shellsense.Analyzer) {
		uris := a.Documents()
		if filePath != "" {
			uris = []string{fileURI(filePath, t.config.WorkspaceRoot)}
		}
		for _, uri := range uris {
			for _, occ := range a.FindOccurrences(uri, name) {
				results = append(results, ReferenceResult{
					File:          relativePath(uri, t.config.WorkspaceRoot),
					Range:         newRange(occ.Range),
					IsDeclaration: occ.IsDeclaration,
				})
			}
		}
	})
	return jsonResult(newQueryResult(name, results))
}

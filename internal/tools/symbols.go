package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

// DocumentSymbolsTool lists the symbols declared in one file
type DocumentSymbolsTool struct {
	dispatch *dispatch.Dispatcher
	config   Config
}

// NewDocumentSymbolsTool creates a new document symbols tool
func NewDocumentSymbolsTool(d *dispatch.Dispatcher, cfg Config) *DocumentSymbolsTool {
	return &DocumentSymbolsTool{dispatch: d, config: cfg}
}

// GetTool returns the MCP tool definition
func (t *DocumentSymbolsTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolDocumentSymbols,
		mcp.WithDescription("List the functions and variables declared in a shell script, in source order"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the script")),
	)
}

// Handle processes the tool request
func (t *DocumentSymbolsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath := mcp.ParseString(req, "file_path", "")
	if filePath == "" {
		return mcp.NewToolResultError("file_path parameter is required"), nil
	}
	uri := fileURI(filePath, t.config.WorkspaceRoot)

	var results []SymbolResult
	var tracked bool
	t.dispatch.Do(func(a *shellsense.Analyzer) {
		tracked = a.Has(uri)
		for _, sym := range a.FindSymbols(uri) {
			results = append(results, newSymbolResult(sym, t.config.WorkspaceRoot))
		}
	})
	if !tracked {
		return mcp.NewToolResultError(fmt.Sprintf("File is not indexed: %s", filePath)), nil
	}
	return jsonResult(newQueryResult(filePath, results))
}

// SearchSymbolsTool searches workspace symbols by name prefix
type SearchSymbolsTool struct {
	dispatch *dispatch.Dispatcher
	config   Config
}

// NewSearchSymbolsTool creates a new symbol search tool
func NewSearchSymbolsTool(d *dispatch.Dispatcher, cfg Config) *SearchSymbolsTool {
	return &SearchSymbolsTool{dispatch: d, config: cfg}
}

// GetTool returns the MCP tool definition
func (t *SearchSymbolsTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolSearchSymbols,
		mcp.WithDescription("Search workspace functions and variables whose name starts with a prefix (case sensitive)"),
		mcp.WithString("prefix", mcp.Description("Name prefix; empty lists every symbol")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 50)")),
	)
}

// Handle processes the tool request
func (t *SearchSymbolsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := mcp.ParseString(req, "prefix", "")
	limit := int(mcp.ParseFloat64(req, "limit", 50))
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	var results []SymbolResult
	total := 0
	t.dispatch.Do(func(a *shellsense.Analyzer) {
		syms := a.Search(prefix)
		total = len(syms)
		if len(syms) > limit {
			syms = syms[:limit]
		}
		for _, sym := range syms {
			results = append(results, newSymbolResult(sym, t.config.WorkspaceRoot))
		}
	})
	if total > limit {
		log.Debugf("search %q truncated from %d to %d", prefix, total, limit)
	}
	res := newQueryResult(prefix, results)
	res.Count = total
	return jsonResult(res)
}

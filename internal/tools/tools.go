// Package tools exposes Analyzer queries as MCP tools. Every tool returns
// JSON text; positions are 0-based with byte columns.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/op/go-logging"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
)

var log = logging.MustGetLogger("tools")

// Tool name prefix for all MCP tools
const ToolPrefix = "shellsense."

// Tool names
const (
	ToolFindDefinition  = ToolPrefix + "find_definition"
	ToolFindReferences  = ToolPrefix + "find_references"
	ToolDocumentSymbols = ToolPrefix + "document_symbols"
	ToolSearchSymbols   = ToolPrefix + "search_symbols"
	ToolWordAtPoint     = ToolPrefix + "word_at_point"
	ToolDiagnostics     = ToolPrefix + "diagnostics"
)

// Config is shared by every tool.
type Config struct {
	WorkspaceRoot string
}

// Tool is one MCP tool backed by the Analyzer.
type Tool interface {
	GetTool() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// All returns every tool.
func All(d *dispatch.Dispatcher, cfg Config) []Tool {
	return []Tool{
		NewFindDefinitionTool(d, cfg),
		NewFindReferencesTool(d, cfg),
		NewDocumentSymbolsTool(d, cfg),
		NewSearchSymbolsTool(d, cfg),
		NewWordAtPointTool(d, cfg),
		NewDiagnosticsTool(d, cfg),
	}
}

// fileURI resolves a tool's file argument against the workspace root.
func fileURI(filePath, workspaceRoot string) string {
	if !filepath.IsAbs(filePath) && workspaceRoot != "" && !isURI(filePath) {
		filePath = filepath.Join(workspaceRoot, filePath)
	}
	return shellsense.PathToURI(filePath)
}

func isURI(s string) bool {
	return strings.HasPrefix(s, "file://")
}

// relativePath renders uri relative to the workspace root when possible.
func relativePath(uri, workspaceRoot string) string {
	path := shellsense.URIToPath(uri)
	if workspaceRoot == "" {
		return path
	}
	if rel, err := filepath.Rel(workspaceRoot, path); err == nil {
		return rel
	}
	return path
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

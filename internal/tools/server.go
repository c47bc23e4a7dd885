package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jward/shellsense/internal/dispatch"
)

// NewServer creates an MCP server with every tool registered.
func NewServer(name, version string, d *dispatch.Dispatcher, cfg Config) *server.MCPServer {
	s := server.NewMCPServer(name, version)
	for _, tool := range All(d, cfg) {
		s.AddTool(tool.GetTool(), tool.Handle)
	}
	return s
}

// ServeStdio serves s on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	log.Infof("serving MCP on stdio")
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("failed to serve MCP server: %w", err)
	}
	return nil
}

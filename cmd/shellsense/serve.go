package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/dispatch"
	"github.com/jward/shellsense/internal/lsp"
	"github.com/jward/shellsense/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdio",
	Long:  "Speaks the Language Server Protocol on stdin/stdout. The workspace is scanned when the client sends initialize.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := lsp.NewServer(lsp.Options{
		ConfigPath: flagConfig,
		Version:    version,
	})
	if err != nil {
		return err
	}
	atexit.Register(s.Close)

	log.Infof("shellsense %s: serving LSP on stdio", version)
	return s.RunStdio()
}

var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Run the MCP tool server on stdio",
	Long:  "Analyzes the workspace at path (default: the repository containing the working directory) and serves query tools over the Model Context Protocol.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	var root string
	if len(args) > 0 {
		dir, err := resolveTargetDir(args)
		if err != nil {
			return err
		}
		root = dir
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = findRepoRoot(cwd)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	a, err := shellsense.FromRoot(context.Background(), root, cfg.AnalyzerOptions()...)
	if err != nil {
		return err
	}
	d := dispatch.New(a)
	atexit.Register(d.Close)

	srv := tools.NewServer("shellsense", version, d, tools.Config{WorkspaceRoot: root})
	return tools.ServeStdio(srv)
}

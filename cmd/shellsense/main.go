package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/config"
	"github.com/jward/shellsense/internal/store"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var log = logging.MustGetLogger("shellsense")

var (
	flagDB       string
	flagFormat   string
	flagLogLevel string
	flagConfig   string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

var rootCmd = &cobra.Command{
	Use:           "shellsense",
	Short:         "Static analysis for shell scripts",
	Long:          "Shellsense parses shell scripts with tree-sitter, extracts functions and variables with Risor scripts, and answers definition, reference and symbol queries from the command line, over LSP, or over MCP.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setupLogging(flagLogLevel)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .shellsense/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: critical|error|warning|notice|info|debug (default from config, else warning)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .shellsense.jsonnet in the repo root)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

const logFormat = `%{time:15:04:05.000} %{module} %{level:.4s} %{message}`

// setupLogging sends every logger to stderr at level. An empty level is
// resolved later from the workspace config by applyConfigLogLevel.
func setupLogging(level string) error {
	backend := logging.NewBackendFormatter(
		logging.NewLogBackend(os.Stderr, "", 0),
		logging.MustStringFormatter(logFormat),
	)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logging.WARNING, "")
	if level != "" {
		lvl, err := logging.LogLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		leveled.SetLevel(lvl, "")
	}
	logging.SetBackend(leveled)
	return nil
}

// applyConfigLogLevel uses the config's level unless --log-level was given.
func applyConfigLogLevel(cfg *config.Config) {
	if flagLogLevel == "" {
		logging.SetLevel(cfg.Level(), "")
	}
}

var (
	flagForce      bool
	flagScriptsDir string
	flagNoGit      bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a workspace into SQLite",
	Long:  "Analyzes every shell script under path and writes symbols, occurrences and diagnostics to the SQLite database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	indexCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripts from disk path instead of embedded")
	indexCmd.Flags().BoolVar(&flagNoGit, "no-git", false, "walk the filesystem instead of asking git for the file list")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	repoRoot := findRepoRoot(targetDir)
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}
	dbPath := resolveDBPath(repoRoot, cfg)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dbDir, err)
	}

	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	ctx := context.Background()

	analyzeStart := time.Now()
	a, err := shellsense.FromRoot(ctx, targetDir, analyzerOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}
	defer a.Close()
	analyzeDuration := time.Since(analyzeStart)

	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	exportStart := time.Now()
	stats, err := a.Export(ctx, s)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	exportDuration := time.Since(exportStart)

	fmt.Fprintf(os.Stderr, "Indexed %s in %s (analyze: %s, export: %s)\n",
		targetDir,
		time.Since(start).Round(time.Millisecond),
		analyzeDuration.Round(time.Millisecond),
		exportDuration.Round(time.Millisecond),
	)
	fmt.Fprintf(os.Stderr, "Files: %d written, %d unchanged, %d deleted\n",
		stats.Written, stats.Skipped, stats.Deleted)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	return nil
}

// loadConfig reads the workspace config and applies its log level.
func loadConfig(repoRoot string) (*config.Config, error) {
	cfg, err := config.Load(repoRoot, flagConfig)
	if err != nil {
		return nil, err
	}
	applyConfigLogLevel(cfg)
	return cfg, nil
}

// analyzerOptions merges config-file settings with command-line flags.
func analyzerOptions(cfg *config.Config) []shellsense.Option {
	opts := cfg.AnalyzerOptions()
	if flagScriptsDir != "" {
		opts = append(opts, shellsense.WithScriptsDir(flagScriptsDir))
	}
	if flagNoGit {
		opts = append(opts, shellsense.WithGit(false))
	}
	return opts
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file, or the default, in that order.
func resolveDBPath(repoRoot string, cfg *config.Config) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return cfg.DBPath(repoRoot)
}

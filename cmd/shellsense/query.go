package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/shellsense"
	"github.com/jward/shellsense/internal/config"
	"github.com/jward/shellsense/internal/store"
)

var (
	flagLimit  int
	flagOffset int
	flagIndex  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query shell scripts in the workspace",
	Long: "Run queries against the workspace. By default the workspace is analyzed in memory; " +
		"--index answers from the SQLite database written by 'shellsense index' instead. " +
		"All line and column numbers are 0-based; columns are byte offsets.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().BoolVar(&flagIndex, "index", false, "answer from the SQLite index instead of analyzing the workspace")
	queryCmd.PersistentFlags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripts from disk path instead of embedded")
	queryCmd.PersistentFlags().BoolVar(&flagNoGit, "no-git", false, "walk the filesystem instead of asking git for the file list")

	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(occurrencesCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(wordCmd)
	queryCmd.AddCommand(completionsCmd)
	queryCmd.AddCommand(diagnosticsCmd)
}

// --- Helpers ---

// workspace is the state a query command runs against.
type workspace struct {
	root     string
	cfg      *config.Config
	analyzer *shellsense.Analyzer
	store    *store.Store
}

func (w *workspace) Close() {
	if w.analyzer != nil {
		w.analyzer.Close()
	}
	if w.store != nil {
		w.store.Close()
	}
}

// openWorkspace analyzes the repository containing the working directory,
// or opens its index when --index is set.
func openWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	root := findRepoRoot(cwd)
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	w := &workspace{root: root, cfg: cfg}

	if flagIndex {
		dbPath := resolveDBPath(root, cfg)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s (run 'shellsense index' first)", dbPath)
		}
		s, err := store.NewStore(dbPath)
		if err != nil {
			return nil, err
		}
		w.store = s
		return w, nil
	}

	a, err := shellsense.FromRoot(context.Background(), root, analyzerOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	w.analyzer = a
	return w, nil
}

// document returns the URI for a file argument, analyzing the file first
// when discovery did not pick it up (e.g. a script without an extension).
func (w *workspace) document(file string) (string, error) {
	path, err := resolveFilePath(file)
	if err != nil {
		return "", err
	}
	uri := shellsense.PathToURI(path)
	if w.analyzer == nil || w.analyzer.Has(uri) {
		return uri, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	if _, err := w.analyzer.Analyze(context.Background(), uri, string(data)); err != nil {
		return "", err
	}
	return uri, nil
}

// indexedFile looks up a file argument in the index.
func (w *workspace) indexedFile(file string) (*store.File, error) {
	path, err := resolveFilePath(file)
	if err != nil {
		return nil, err
	}
	f, err := w.store.FileByURI(shellsense.PathToURI(path))
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("file not indexed: %s", path)
	}
	return f, nil
}

// requireAnalyzer rejects --index for commands that need syntax trees.
func requireAnalyzer(command string) error {
	if flagIndex {
		return fmt.Errorf("%s does not support --index", command)
	}
	return nil
}

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() store.Pagination {
	return store.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// paginate applies --offset and --limit to an in-memory result slice.
func paginate[T any](items []T) []T {
	offset := max(flagOffset, 0)
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	limit := flagLimit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func symbolToCLI(sym shellsense.Symbol) CLISymbol {
	return CLISymbol{
		Name:      sym.Name,
		Kind:      sym.Kind,
		Container: sym.Container,
		File:      shellsense.URIToPath(sym.URI),
		StartLine: sym.StartLine,
		StartCol:  sym.StartCol,
		EndLine:   sym.EndLine,
		EndCol:    sym.EndCol,
		NameLine:  sym.NameRange.StartLine,
		NameCol:   sym.NameRange.StartCol,
	}
}

func symbolsToCLI(syms []*store.Symbol) []CLISymbol {
	out := make([]CLISymbol, len(syms))
	for i, sym := range syms {
		out[i] = symbolToCLI(*sym)
	}
	return out
}

func locationToCLI(uri string, r shellsense.Range, isDecl *bool) CLILocation {
	return CLILocation{
		File:          shellsense.URIToPath(uri),
		StartLine:     r.StartLine,
		StartCol:      r.StartCol,
		EndLine:       r.EndLine,
		EndCol:        r.EndCol,
		IsDeclaration: isDecl,
	}
}

func diagnosticToCLI(uri string, d shellsense.Diagnostic) CLIDiagnostic {
	return CLIDiagnostic{
		File:      shellsense.URIToPath(uri),
		Severity:  d.Severity.String(),
		Message:   d.Message,
		StartLine: d.StartLine,
		StartCol:  d.StartCol,
		EndLine:   d.EndLine,
		EndCol:    d.EndCol,
	}
}

func listResult[T any](command string, items []T) CLIResult {
	n := len(items)
	return CLIResult{Command: command, Results: items, TotalCount: &n}
}

// --- Name Commands ---

var definitionCmd = &cobra.Command{
	Use:   "definition <name>",
	Short: "Find every declaration of a function or variable",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefinition,
}

func runDefinition(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace()
	if err != nil {
		return outputError("definition", err)
	}
	defer w.Close()

	var syms []CLISymbol
	if w.store != nil {
		found, err := w.store.SymbolsByName(args[0])
		if err != nil {
			return outputError("definition", err)
		}
		syms = symbolsToCLI(found)
	} else {
		syms = []CLISymbol{}
		for _, loc := range w.analyzer.FindDefinition(args[0]) {
			for _, sym := range w.analyzer.FindSymbols(loc.URI) {
				if sym.Name == args[0] && sym.Range == loc.Range {
					syms = append(syms, symbolToCLI(sym))
					break
				}
			}
		}
	}
	return outputResult(listResult("definition", syms))
}

var referencesCmd = &cobra.Command{
	Use:   "references <name>",
	Short: "Find every occurrence of a name across the workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace()
	if err != nil {
		return outputError("references", err)
	}
	defer w.Close()

	locs := []CLILocation{}
	if w.store != nil {
		occs, err := w.store.OccurrencesByName(args[0])
		if err != nil {
			return outputError("references", err)
		}
		for _, occ := range occs {
			locs = append(locs, locationToCLI(occ.URI, occ.Range, &occ.IsDeclaration))
		}
	} else {
		for _, uri := range w.analyzer.Documents() {
			for _, occ := range w.analyzer.FindOccurrences(uri, args[0]) {
				locs = append(locs, locationToCLI(uri, occ.Range, &occ.IsDeclaration))
			}
		}
	}
	return outputResult(listResult("references", locs))
}

var searchCmd = &cobra.Command{
	Use:   "search [prefix]",
	Short: "Search symbols by name prefix (case sensitive)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	w, err := openWorkspace()
	if err != nil {
		return outputError("search", err)
	}
	defer w.Close()

	var syms []CLISymbol
	var total int
	if w.store != nil {
		found, count, err := w.store.SearchSymbols(prefix, buildPagination())
		if err != nil {
			return outputError("search", err)
		}
		syms, total = symbolsToCLI(found), count
	} else {
		all := w.analyzer.Search(prefix)
		total = len(all)
		page := paginate(all)
		syms = make([]CLISymbol, len(page))
		for i, sym := range page {
			syms[i] = symbolToCLI(sym)
		}
	}
	return outputResult(CLIResult{Command: "search", Results: syms, TotalCount: &total})
}

// --- File Commands ---

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences <file> <name>",
	Short: "Find occurrences of a name in one file",
	Args:  cobra.ExactArgs(2),
	RunE:  runOccurrences,
}

func runOccurrences(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace()
	if err != nil {
		return outputError("occurrences", err)
	}
	defer w.Close()

	locs := []CLILocation{}
	if w.store != nil {
		f, err := w.indexedFile(args[0])
		if err != nil {
			return outputError("occurrences", err)
		}
		occs, err := w.store.OccurrencesByFile(f.ID)
		if err != nil {
			return outputError("occurrences", err)
		}
		for _, occ := range occs {
			if occ.Name == args[1] {
				locs = append(locs, locationToCLI(occ.URI, occ.Range, &occ.IsDeclaration))
			}
		}
	} else {
		uri, err := w.document(args[0])
		if err != nil {
			return outputError("occurrences", err)
		}
		for _, occ := range w.analyzer.FindOccurrences(uri, args[1]) {
			locs = append(locs, locationToCLI(uri, occ.Range, &occ.IsDeclaration))
		}
	}
	return outputResult(listResult("occurrences", locs))
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "List the symbols declared in a file, in source order",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace()
	if err != nil {
		return outputError("symbols", err)
	}
	defer w.Close()

	var syms []CLISymbol
	if w.store != nil {
		f, err := w.indexedFile(args[0])
		if err != nil {
			return outputError("symbols", err)
		}
		found, err := w.store.SymbolsByFile(f.ID)
		if err != nil {
			return outputError("symbols", err)
		}
		syms = symbolsToCLI(found)
	} else {
		uri, err := w.document(args[0])
		if err != nil {
			return outputError("symbols", err)
		}
		found := w.analyzer.FindSymbols(uri)
		syms = make([]CLISymbol, len(found))
		for i, sym := range found {
			syms[i] = symbolToCLI(sym)
		}
	}
	return outputResult(listResult("symbols", syms))
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics <file>",
	Short: "Report syntax errors in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnostics,
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	w, err := openWorkspace()
	if err != nil {
		return outputError("diagnostics", err)
	}
	defer w.Close()

	diags := []CLIDiagnostic{}
	if w.store != nil {
		f, err := w.indexedFile(args[0])
		if err != nil {
			return outputError("diagnostics", err)
		}
		found, err := w.store.DiagnosticsByFile(f.ID)
		if err != nil {
			return outputError("diagnostics", err)
		}
		for _, d := range found {
			diags = append(diags, diagnosticToCLI(f.URI, d.Diagnostic))
		}
	} else {
		uri, err := w.document(args[0])
		if err != nil {
			return outputError("diagnostics", err)
		}
		for _, d := range w.analyzer.Diagnostics(uri) {
			diags = append(diags, diagnosticToCLI(uri, d))
		}
	}
	return outputResult(listResult("diagnostics", diags))
}

// --- Position Commands ---

var wordCmd = &cobra.Command{
	Use:   "word <file> <line> <col>",
	Short: "Print the token at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runWord,
}

func runWord(cmd *cobra.Command, args []string) error {
	if err := requireAnalyzer("word"); err != nil {
		return outputError("word", err)
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("word", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("word", err)
	}

	w, err := openWorkspace()
	if err != nil {
		return outputError("word", err)
	}
	defer w.Close()

	uri, err := w.document(args[0])
	if err != nil {
		return outputError("word", err)
	}
	word, ok := w.analyzer.WordAtPoint(uri, line, col)
	if !ok {
		return outputResult(CLIResult{Command: "word", Results: nil})
	}
	one := 1
	return outputResult(CLIResult{Command: "word", Results: CLIWord{Word: word}, TotalCount: &one})
}

var completionsCmd = &cobra.Command{
	Use:   "completions <file>",
	Short: "List completion candidates for a file",
	Long:  "Lists the file's own symbols, plus reserved words unless the config disables them.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompletions,
}

func runCompletions(cmd *cobra.Command, args []string) error {
	if err := requireAnalyzer("completions"); err != nil {
		return outputError("completions", err)
	}
	w, err := openWorkspace()
	if err != nil {
		return outputError("completions", err)
	}
	defer w.Close()

	uri, err := w.document(args[0])
	if err != nil {
		return outputError("completions", err)
	}
	candidates := w.analyzer.FindSymbolCompletions(uri)
	if w.cfg.IncludeReservedWords() {
		candidates = append(candidates, shellsense.ReservedCandidates()...)
	}
	items := make([]CLICompletion, len(candidates))
	for i, c := range candidates {
		items[i] = CLICompletion{Label: c.Name, Kind: string(c.Kind), SymbolKind: c.SymbolKind}
	}
	return outputResult(listResult("completions", items))
}

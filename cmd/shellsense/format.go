package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatLocationsText formats CLILocation results as "file:line:col" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		suffix := ""
		if loc.IsDeclaration != nil && *loc.IsDeclaration {
			suffix = " (declaration)"
		}
		fmt.Fprintf(w, "%s:%d:%d%s\n", loc.File, loc.StartLine, loc.StartCol, suffix)
	}
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCONTAINER\tFILE\tLINE")
	for _, s := range syms {
		container := s.Container
		if container == "" {
			container = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			s.Name, s.Kind, container, s.File, s.StartLine)
	}
	tw.Flush()
}

// formatCompletionsText formats CLICompletion results as aligned columns.
func formatCompletionsText(w io.Writer, items []CLICompletion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND")
	for _, it := range items {
		kind := it.Kind
		if it.SymbolKind != "" {
			kind += "/" + it.SymbolKind
		}
		fmt.Fprintf(tw, "%s\t%s\n", it.Label, kind)
	}
	tw.Flush()
}

// formatDiagnosticsText formats diagnostics as "file:line:col: severity: message".
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", d.File, d.StartLine, d.StartCol, d.Severity, d.Message)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLICompletion:
		formatCompletionsText(w, v)
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case CLIWord:
		fmt.Fprintln(w, v.Word)
	case nil:
		// No output for nil results (e.g., word with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLILocation:
		return len(r)
	case []CLISymbol:
		return len(r)
	case []CLICompletion:
		return len(r)
	case []CLIDiagnostic:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// stdout is where results are written; tests swap it.
var stdout io.Writer = os.Stdout

// Package shellsense answers static-analysis questions about shell scripts:
// what is under the cursor, where a name is defined, where else it is used
// and which symbols a document or workspace declares. It is built on
// tree-sitter's bash grammar.
//
// # Pipeline
//
// Every content change runs the same steps for one document:
//
//  1. Parse: the text is parsed with tree-sitter. Malformed shell never
//     fails; ERROR and MISSING nodes become diagnostics.
//  2. Extract: the embedded Risor script scripts/extract/bash.risor walks
//     the tree and emits symbols (functions and variables) and occurrences
//     (every mention of a name).
//  3. Replace: a new Document is built in full and swapped in for the old
//     one. Queries never see a half-analyzed document.
//
// # Usage
//
//	a, err := shellsense.FromRoot(ctx, "path/to/project")
//	if err != nil { ... }
//	defer a.Close()
//
//	diags, err := a.Analyze(ctx, uri, text)
//	word, ok := a.WordAtPoint(uri, 10, 4)
//	locs := a.FindDefinition(word)
//
// # Query API
//
//   - [Analyzer.WordAtPoint]: the leaf token under a position.
//   - [Analyzer.FindDefinition]: every declaration of a name, workspace wide.
//   - [Analyzer.FindReferences]: every mention of a name, workspace wide.
//   - [Analyzer.FindOccurrences]: every mention of a name in one document.
//   - [Analyzer.FindSymbols]: one document's symbols in source order.
//   - [Analyzer.Search]: prefix search over all symbol names.
//   - [Analyzer.FindSymbolCompletions]: completion candidates for a document.
//
// # Concurrency
//
// An Analyzer has no internal locking. Callers that share one between
// goroutines route every call through internal/dispatch.
//
// # Persistence
//
// [Analyzer.Export] writes the analyzed workspace to a SQLite snapshot,
// skipping files whose content and extraction scripts are unchanged since
// the previous export.
package shellsense

package tools

import "github.com/jward/shellsense"

// RangeResult is a 0-based, end-exclusive span with byte columns.
type RangeResult struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

func newRange(r shellsense.Range) RangeResult {
	return RangeResult{StartLine: r.StartLine, StartCol: r.StartCol, EndLine: r.EndLine, EndCol: r.EndCol}
}

// LocationResult is a range in a workspace file.
type LocationResult struct {
	File  string      `json:"file"`
	Range RangeResult `json:"range"`
}

// SymbolResult describes one declared symbol.
type SymbolResult struct {
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	File      string      `json:"file"`
	Range     RangeResult `json:"range"`
	NameRange RangeResult `json:"name_range"`
	Container string      `json:"container,omitempty"`
}

// ReferenceResult is one occurrence of a name.
type ReferenceResult struct {
	File          string      `json:"file"`
	Range         RangeResult `json:"range"`
	IsDeclaration bool        `json:"is_declaration,omitempty"`
}

// DiagnosticResult is one syntax problem.
type DiagnosticResult struct {
	Severity string      `json:"severity"`
	Message  string      `json:"message"`
	Range    RangeResult `json:"range"`
}

// QueryResult wraps a list with the query that produced it.
type QueryResult[T any] struct {
	Query   string `json:"query"`
	Count   int    `json:"count"`
	Results []T    `json:"results"`
}

func newQueryResult[T any](query string, results []T) QueryResult[T] {
	if results == nil {
		results = []T{}
	}
	return QueryResult[T]{Query: query, Count: len(results), Results: results}
}

func newSymbolResult(sym shellsense.Symbol, root string) SymbolResult {
	return SymbolResult{
		Name:      sym.Name,
		Kind:      sym.Kind,
		File:      relativePath(sym.URI, root),
		Range:     newRange(sym.Range),
		NameRange: newRange(sym.NameRange),
		Container: sym.Container,
	}
}

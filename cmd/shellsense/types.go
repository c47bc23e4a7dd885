package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Container string `json:"container,omitempty"`
	File      string `json:"file,omitempty"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	NameLine  int    `json:"name_line"`
	NameCol   int    `json:"name_col"`
}

// CLILocation is a range in a file.
type CLILocation struct {
	File          string `json:"file"`
	StartLine     int    `json:"start_line"`
	StartCol      int    `json:"start_col"`
	EndLine       int    `json:"end_line"`
	EndCol        int    `json:"end_col"`
	IsDeclaration *bool  `json:"is_declaration,omitempty"`
}

// CLIWord is the token at a position.
type CLIWord struct {
	Word string `json:"word"`
}

// CLICompletion is a completion candidate.
type CLICompletion struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	SymbolKind string `json:"symbol_kind,omitempty"`
}

// CLIDiagnostic is a syntax diagnostic.
type CLIDiagnostic struct {
	File      string `json:"file"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

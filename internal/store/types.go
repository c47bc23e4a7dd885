package store

import (
	"time"

	"github.com/jward/shellsense/internal/syntax"
)

// Symbol kinds emitted by the extraction script.
const (
	KindFunction = "function"
	KindVariable = "variable"
)

type File struct {
	ID          int64
	URI         string
	Path        string
	Language    string
	Hash        string
	Version     int
	LastIndexed time.Time
}

// Symbol is a named declaration. The embedded Range covers the whole
// declaration node; NameRange covers only the name token.
type Symbol struct {
	ID     int64
	FileID int64
	URI    string
	Name   string
	Kind   string
	syntax.Range
	NameRange syntax.Range
	// Container is the name of the enclosing function, empty at top level.
	Container      string
	ParentSymbolID *int64
}

// Occurrence is any syntactic mention of a name.
type Occurrence struct {
	ID     int64
	FileID int64
	URI    string
	Name   string
	syntax.Range
	IsDeclaration bool
}

// Diagnostic is a persisted syntax diagnostic.
type Diagnostic struct {
	ID     int64
	FileID int64
	syntax.Diagnostic
}

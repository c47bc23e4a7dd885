package shellsense

import (
	"github.com/jward/shellsense/internal/store"
	"github.com/jward/shellsense/internal/syntax"
)

// Public type aliases for the internal types returned by the query API.
// These are Go type aliases (=), so no conversion is needed.

type Store = store.Store
type Symbol = store.Symbol
type Occurrence = store.Occurrence
type Range = syntax.Range
type Diagnostic = syntax.Diagnostic
type Severity = syntax.Severity

const (
	SeverityError       = syntax.SeverityError
	SeverityWarning     = syntax.SeverityWarning
	SeverityInformation = syntax.SeverityInformation
	SeverityHint        = syntax.SeverityHint
)

// Symbol kinds.
const (
	KindFunction = store.KindFunction
	KindVariable = store.KindVariable
)

// Location is a range inside a document.
type Location struct {
	URI string
	Range
}

package syntax

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Severity follows the LSP numbering so it can be passed through unchanged.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a problem found in a document's syntax tree.
type Diagnostic struct {
	Range
	Message  string
	Severity Severity
}

// Diagnostics walks the tree and reports ERROR nodes as errors and MISSING
// nodes as warnings. The contents of an ERROR node are not inspected: one
// diagnostic per unparseable region.
func Diagnostics(root *sitter.Node) []Diagnostic {
	var out []Diagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == NodeError {
			out = append(out, Diagnostic{
				Range:    RangeOf(n),
				Message:  "Failed to parse expression",
				Severity: SeverityError,
			})
			return
		}
		if n.IsMissing() {
			out = append(out, Diagnostic{
				Range:    RangeOf(n),
				Message:  fmt.Sprintf("Syntax error: expected %q somewhere in the file", n.Type()),
				Severity: SeverityWarning,
			})
			return
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

package shellsense

import (
	"strings"

	"github.com/jward/shellsense/internal/syntax"
)

// WordAtPoint returns the text of the leaf token containing (line, col).
// It reports false when the document is unknown, the point is outside the
// tree, the smallest node there is not a leaf, or the leaf is blank.
// Comments are returned whole; callers decide what to do with them.
func (a *Analyzer) WordAtPoint(uri string, line, col int) (string, bool) {
	doc, ok := a.docs[uri]
	if !ok {
		return "", false
	}
	node := syntax.NodeAt(doc.tree.RootNode(), line, col)
	if node == nil || node.ChildCount() > 0 {
		return "", false
	}
	word := strings.TrimSpace(node.Content(doc.text))
	if word == "" {
		return "", false
	}
	return word, true
}

// FindDefinition returns the declaring range of every symbol named name,
// documents in indexing order and source order within a document.
func (a *Analyzer) FindDefinition(name string) []Location {
	var out []Location
	for _, uri := range a.order {
		for _, sym := range a.docs[uri].symbolsNamed(name) {
			out = append(out, Location{URI: uri, Range: sym.Range})
		}
	}
	return out
}

// FindReferences returns every occurrence of name across the workspace,
// declarations included.
func (a *Analyzer) FindReferences(name string) []Location {
	var out []Location
	for _, uri := range a.order {
		for _, occ := range a.docs[uri].extracted.Occurrences {
			if occ.Name == name {
				out = append(out, Location{URI: uri, Range: occ.Range})
			}
		}
	}
	return out
}

// FindOccurrences returns every occurrence of name in one document.
func (a *Analyzer) FindOccurrences(uri, name string) []Occurrence {
	doc, ok := a.docs[uri]
	if !ok {
		return nil
	}
	var out []Occurrence
	for _, occ := range doc.extracted.Occurrences {
		if occ.Name == name {
			out = append(out, occ)
		}
	}
	return out
}

// FindSymbols returns one document's symbols in source order.
func (a *Analyzer) FindSymbols(uri string) []Symbol {
	doc, ok := a.docs[uri]
	if !ok {
		return nil
	}
	out := make([]Symbol, len(doc.extracted.Symbols))
	copy(out, doc.extracted.Symbols)
	return out
}

// Search returns every symbol in the workspace whose name starts with
// query. Matching is case sensitive; an empty query matches everything.
func (a *Analyzer) Search(query string) []Symbol {
	var out []Symbol
	for _, uri := range a.order {
		for _, sym := range a.docs[uri].extracted.Symbols {
			if strings.HasPrefix(sym.Name, query) {
				out = append(out, sym)
			}
		}
	}
	return out
}

// FindSymbolCompletions returns the symbols declared in uri as completion
// candidates, one per (name, kind), in source order of first declaration.
func (a *Analyzer) FindSymbolCompletions(uri string) []CompletionCandidate {
	doc, ok := a.docs[uri]
	if !ok {
		return nil
	}
	type key struct{ name, kind string }
	seen := make(map[key]bool)
	var out []CompletionCandidate
	for _, sym := range doc.extracted.Symbols {
		k := key{sym.Name, sym.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, CompletionCandidate{
			Kind:       CandidateSymbol,
			Name:       sym.Name,
			SymbolKind: sym.Kind,
		})
	}
	return out
}

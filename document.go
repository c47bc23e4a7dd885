package shellsense

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/shellsense/internal/store"
	"github.com/jward/shellsense/internal/syntax"
)

// Document is the analyzed state of one URI. It is built in full by
// Analyze and never mutated afterwards; a change produces a new Document.
type Document struct {
	uri     string
	text    []byte
	hash    string
	version int

	// tree is owned exclusively by the Document and closed when the
	// Document is replaced or removed.
	tree *sitter.Tree

	// extracted holds symbols and occurrences in source order, with the
	// fake IDs extraction assigned.
	extracted *store.Batch
	byName    map[string][]int // symbol index: name -> positions in extracted.Symbols
	diags     []syntax.Diagnostic
}

func newDocument(uri string, text []byte, version int, tree *sitter.Tree, batch *store.Batch) *Document {
	d := &Document{
		uri:       uri,
		text:      text,
		hash:      store.ContentHash(text),
		version:   version,
		tree:      tree,
		extracted: batch,
		byName:    make(map[string][]int),
		diags:     syntax.Diagnostics(tree.RootNode()),
	}
	for i, sym := range batch.Symbols {
		d.byName[sym.Name] = append(d.byName[sym.Name], i)
	}
	return d
}

func (d *Document) close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// symbolsNamed returns copies of the symbols named name, in source order.
func (d *Document) symbolsNamed(name string) []Symbol {
	idx := d.byName[name]
	out := make([]Symbol, len(idx))
	for i, j := range idx {
		out[i] = d.extracted.Symbols[j]
	}
	return out
}

package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/shellsense/internal/store"
	"github.com/jward/shellsense/internal/syntax"
)

// Extract runs the bash extraction script over tree and buffers the emitted
// symbols and occurrences in batch, sorted by source position. The tree is
// exposed to the script as the global "tree" for the duration of the call.
func (r *Runtime) Extract(ctx context.Context, uri string, tree *sitter.Tree, src []byte, batch *store.Batch) error {
	lang, ok := syntax.GrammarForLanguage(syntax.Bash)
	if !ok {
		return fmt.Errorf("runtime: %s grammar unavailable", syntax.Bash)
	}
	r.sources.store(tree, src, lang)
	defer r.sources.release(tree)

	treeProxy, err := object.NewProxy(tree)
	if err != nil {
		return fmt.Errorf("runtime: proxy tree: %w", err)
	}

	x := &extraction{
		uri:      uri,
		src:      src,
		batch:    batch,
		declared: make(map[syntax.Range]bool),
	}
	err = r.RunScript(ctx, ExtractionScriptPath(syntax.Bash), map[string]any{
		"tree":            treeProxy,
		"uri":             uri,
		"emit_symbol":     x.emitSymbolFn(),
		"emit_occurrence": x.emitOccurrenceFn(),
	})
	if err != nil {
		return err
	}
	batch.Sort()
	return nil
}

// extraction is the Go-side state of one script run. Scripts hand over raw
// nodes; text, ranges, scoping and the declaration flag are computed here.
type extraction struct {
	uri      string
	src      []byte
	batch    *store.Batch
	declared map[syntax.Range]bool // name ranges of emitted symbols
}

// nameNode resolves an assignment target to the node carrying the name:
// arr[0]=x declares arr.
func nameNode(node *sitter.Node) *sitter.Node {
	if node.Type() == syntax.NodeSubscript {
		if base := node.ChildByFieldName("name"); base != nil {
			return base
		}
		if node.NamedChildCount() > 0 {
			return node.NamedChild(0)
		}
	}
	return node
}

// emitSymbolFn creates "emit_symbol".
//
// emit_symbol(kind, name_node, decl_node) → int (fake symbol ID)
func (x *extraction) emitSymbolFn() *object.Builtin {
	return object.NewBuiltin("emit_symbol", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("emit_symbol", 3, len(args))
		}
		kind, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("emit_symbol: kind must be a string, got %s", args[0].Type())
		}
		switch kind.Value() {
		case store.KindFunction, store.KindVariable:
		default:
			return object.Errorf("emit_symbol: unknown kind %q", kind.Value())
		}
		name, errObj := nodeArg("emit_symbol", args[1])
		if errObj != nil {
			return errObj
		}
		decl, errObj := nodeArg("emit_symbol", args[2])
		if errObj != nil {
			return errObj
		}
		name = nameNode(name)

		sym := &store.Symbol{
			URI:       x.uri,
			Name:      name.Content(x.src),
			Kind:      kind.Value(),
			Range:     syntax.RangeOf(decl),
			NameRange: syntax.RangeOf(name),
		}
		if fn := syntax.EnclosingFunction(decl); fn != nil {
			if fnName := fn.ChildByFieldName("name"); fnName != nil {
				sym.Container = fnName.Content(x.src)
			}
			if parentID, ok := x.batch.FunctionAt(syntax.RangeOf(fn)); ok {
				sym.ParentSymbolID = &parentID
			}
		}
		if sym.Name == "" {
			return object.Nil
		}

		id, err := x.batch.InsertSymbol(sym)
		if err != nil {
			return object.Errorf("emit_symbol: %v", err)
		}
		x.declared[sym.NameRange] = true
		return object.NewInt(id)
	})
}

// emitOccurrenceFn creates "emit_occurrence". Command names that are not
// plain words ($cmd args) are skipped; the expansion inside is reported as a
// variable_name on its own.
//
// emit_occurrence(node) → int (fake occurrence ID) or nil
func (x *extraction) emitOccurrenceFn() *object.Builtin {
	return object.NewBuiltin("emit_occurrence", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit_occurrence", 1, len(args))
		}
		node, errObj := nodeArg("emit_occurrence", args[0])
		if errObj != nil {
			return errObj
		}
		if node.Type() == syntax.NodeCommandName {
			if node.NamedChildCount() != 1 || node.NamedChild(0).Type() != syntax.NodeWord {
				return object.Nil
			}
		}

		rng := syntax.RangeOf(node)
		occ := &store.Occurrence{
			URI:           x.uri,
			Name:          node.Content(x.src),
			Range:         rng,
			IsDeclaration: x.declared[rng],
		}
		if occ.Name == "" {
			return object.Nil
		}
		id, err := x.batch.InsertOccurrence(occ)
		if err != nil {
			return object.Errorf("emit_occurrence: %v", err)
		}
		return object.NewInt(id)
	})
}

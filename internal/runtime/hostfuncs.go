package runtime

import (
	"context"
	"sync"
	"unsafe"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
)

// treeSource is what a script needs to recover from a bare node: the bytes
// the tree was parsed from and its grammar.
type treeSource struct {
	src  []byte
	lang *sitter.Language
}

// sourceStore maps the root node of every tree handed to a script to its
// treeSource. go-tree-sitter has no Node.Tree(), so lookups walk a node up
// to its root. Extract registers a tree for the duration of one run.
type sourceStore struct {
	mu    sync.RWMutex
	trees map[uintptr]treeSource
}

func newSourceStore() *sourceStore {
	return &sourceStore{trees: make(map[uintptr]treeSource)}
}

func rootKey(node *sitter.Node) uintptr {
	for node.Parent() != nil {
		node = node.Parent()
	}
	return uintptr(unsafe.Pointer(node))
}

func (s *sourceStore) store(tree *sitter.Tree, src []byte, lang *sitter.Language) {
	key := rootKey(tree.RootNode())
	s.mu.Lock()
	s.trees[key] = treeSource{src: src, lang: lang}
	s.mu.Unlock()
}

func (s *sourceStore) release(tree *sitter.Tree) {
	key := rootKey(tree.RootNode())
	s.mu.Lock()
	delete(s.trees, key)
	s.mu.Unlock()
}

func (s *sourceStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trees)
}

func (s *sourceStore) lookup(node *sitter.Node) (treeSource, bool) {
	key := rootKey(node)
	s.mu.RLock()
	ts, ok := s.trees[key]
	s.mu.RUnlock()
	return ts, ok
}

// nodeArg unwraps a proxied *sitter.Node passed to a host function.
func nodeArg(fn string, arg object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok || node == nil {
		return nil, object.Errorf("%s: expected *sitter.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

// makeNodeTextFn creates "node_text". Risor proxies cannot pass a []byte to
// Node.Content, so the source is looked up on the Go side.
//
// node_text(node) → string
func makeNodeTextFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		ts, ok := ss.lookup(node)
		if !ok {
			return object.Errorf("node_text: node does not belong to the tree being extracted")
		}
		return object.NewString(node.Content(ts.src))
	})
}

// makeQueryFn creates "query". Each match is a map from capture name to the
// captured node; #eq? and #match? predicates are applied against the source.
//
// query(pattern, node) → []map[string]Node
func makeQueryFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		pattern, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("query: pattern must be a string, got %s", args[0].Type())
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}
		ts, found := ss.lookup(node)
		if !found {
			return object.Errorf("query: node does not belong to the tree being extracted")
		}

		q, err := sitter.NewQuery([]byte(pattern.Value()), ts.lang)
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, ts.src)
			if len(match.Captures) == 0 {
				continue
			}
			captures := make(map[string]object.Object, len(match.Captures))
			for _, c := range match.Captures {
				name := q.CaptureNameForId(c.Index)
				p, err := object.NewProxy(c.Node)
				if err != nil {
					return object.Errorf("query: capture %q: %v", name, err)
				}
				captures[name] = p
			}
			results = append(results, object.NewMap(captures))
		}
		return object.NewList(results)
	})
}

// makeNodeChildFn creates "node_child". A missing field yields Risor nil
// rather than a proxied nil pointer.
//
// node_child(node, field) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		field, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("node_child: field must be a string, got %s", args[1].Type())
		}
		child := node.ChildByFieldName(field.Value())
		if child == nil {
			return object.Nil
		}
		p, err := object.NewProxy(child)
		if err != nil {
			return object.Errorf("node_child: %v", err)
		}
		return p
	})
}

// logObject is the "log" global: log.Debug/Info/Warn/Error forward to the
// runtime logger.
type logObject struct{}

func (l *logObject) Debug(msg string) { log.Debug(msg) }
func (l *logObject) Info(msg string)  { log.Info(msg) }
func (l *logObject) Warn(msg string)  { log.Warning(msg) }
func (l *logObject) Error(msg string) { log.Error(msg) }

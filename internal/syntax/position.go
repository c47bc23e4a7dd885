package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Range is a 0-based, end-exclusive span. Columns are byte offsets within
// the line, as tree-sitter reports them.
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// RangeOf returns the span of node.
func RangeOf(node *sitter.Node) Range {
	start, end := node.StartPoint(), node.EndPoint()
	return Range{
		StartLine: int(start.Row),
		StartCol:  int(start.Column),
		EndLine:   int(end.Row),
		EndCol:    int(end.Column),
	}
}

// Contains reports whether (line, col) falls inside r.
func (r Range) Contains(line, col int) bool {
	if line < r.StartLine || (line == r.StartLine && col < r.StartCol) {
		return false
	}
	if line > r.EndLine || (line == r.EndLine && col >= r.EndCol) {
		return false
	}
	return true
}

// Before reports whether r starts before o.
func (r Range) Before(o Range) bool {
	if r.StartLine != o.StartLine {
		return r.StartLine < o.StartLine
	}
	return r.StartCol < o.StartCol
}

// NodeAt returns the smallest node under root whose range contains
// (line, col), or nil when the point lies outside root. Zero-width nodes
// (MISSING tokens) never contain a point.
func NodeAt(root *sitter.Node, line, col int) *sitter.Node {
	if root == nil || line < 0 || col < 0 {
		return nil
	}
	if !RangeOf(root).Contains(line, col) {
		return nil
	}

	node := root
	for {
		var next *sitter.Node
		count := int(node.ChildCount())
		for i := 0; i < count; i++ {
			child := node.Child(i)
			if child != nil && RangeOf(child).Contains(line, col) {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

// EnclosingFunction walks up from node and returns the nearest
// function_definition ancestor, or nil at top level.
func EnclosingFunction(node *sitter.Node) *sitter.Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() == NodeFunctionDefinition {
			return p
		}
	}
	return nil
}

package syntax

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) *sitter.Tree {
	t.Helper()
	p, err := NewParser()
	require.NoError(t, err)
	tree, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParse_RootIsProgram(t *testing.T) {
	t.Parallel()
	tree := parseSource(t, "echo hello\n")
	assert.Equal(t, NodeProgram, tree.RootNode().Type())
}

func TestParse_MalformedSourceStillReturnsTree(t *testing.T) {
	t.Parallel()
	tree := parseSource(t, "if then fi ((( }\n")
	root := tree.RootNode()
	require.NotNil(t, root)
	assert.True(t, root.HasError())
}

func TestDiagnostics_CleanScript(t *testing.T) {
	t.Parallel()
	tree := parseSource(t, "#!/bin/bash\nfoo() {\n  echo \"$1\"\n}\nfoo bar\n")
	assert.Empty(t, Diagnostics(tree.RootNode()))
}

func TestDiagnostics_ReportsProblems(t *testing.T) {
	t.Parallel()
	tree := parseSource(t, "if then fi ((( }\n")
	diags := Diagnostics(tree.RootNode())
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.NotEmpty(t, d.Message)
		assert.Contains(t, []Severity{SeverityError, SeverityWarning}, d.Severity)
	}
}

func TestDiagnostics_NilRoot(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Diagnostics(nil))
}

func TestNodeAt_VariableInsideExpansion(t *testing.T) {
	t.Parallel()
	src := []byte("echo $HOME")
	tree := parseSource(t, string(src))

	node := NodeAt(tree.RootNode(), 0, 7)
	require.NotNil(t, node)
	assert.Equal(t, NodeVariableName, node.Type())
	assert.Equal(t, "HOME", node.Content(src))
}

func TestNodeAt_WhitespaceLandsOnParent(t *testing.T) {
	t.Parallel()
	tree := parseSource(t, "echo $HOME")

	node := NodeAt(tree.RootNode(), 0, 4)
	require.NotNil(t, node)
	assert.NotZero(t, node.ChildCount(), "whitespace should resolve to an interior node")
}

func TestNodeAt_OutsideTree(t *testing.T) {
	t.Parallel()
	tree := parseSource(t, "echo hi")
	assert.Nil(t, NodeAt(tree.RootNode(), 5, 0))
	assert.Nil(t, NodeAt(tree.RootNode(), -1, 0))
	assert.Nil(t, NodeAt(nil, 0, 0))
}

func TestEnclosingFunction(t *testing.T) {
	t.Parallel()
	src := []byte("build() {\n  out=1\n}\ntop=2\n")
	tree := parseSource(t, string(src))

	inner := NodeAt(tree.RootNode(), 1, 3)
	require.NotNil(t, inner)
	fn := EnclosingFunction(inner)
	require.NotNil(t, fn)
	assert.Equal(t, "build", fn.ChildByFieldName("name").Content(src))

	outer := NodeAt(tree.RootNode(), 3, 1)
	require.NotNil(t, outer)
	assert.Nil(t, EnclosingFunction(outer))
}

func TestRange_Contains(t *testing.T) {
	t.Parallel()
	r := Range{StartLine: 1, StartCol: 4, EndLine: 1, EndCol: 8}

	assert.True(t, r.Contains(1, 4))
	assert.True(t, r.Contains(1, 7))
	assert.False(t, r.Contains(1, 8), "end is exclusive")
	assert.False(t, r.Contains(1, 3))
	assert.False(t, r.Contains(0, 5))
	assert.False(t, r.Contains(2, 0))
}

func TestSeverity_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "severity(9)", Severity(9).String())
}

func TestParse_CancelledContext(t *testing.T) {
	t.Parallel()
	p, err := NewParser()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Parse(ctx, []byte("echo hi"))
	require.ErrorIs(t, err, context.Canceled)
}

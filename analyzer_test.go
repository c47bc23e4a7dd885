package shellsense

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	a, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func analyze(t *testing.T, a *Analyzer, uri, text string) []Diagnostic {
	t.Helper()
	diags, err := a.Analyze(context.Background(), uri, text)
	require.NoError(t, err)
	return diags
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_UsesEmbeddedScripts(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	assert.NotNil(t, a.parser)
	assert.NotNil(t, a.runtime)
	assert.Empty(t, a.Documents())
}

func TestNew_MissingExtractionScript(t *testing.T) {
	t.Parallel()
	_, err := New(WithScriptsFS(fstest.MapFS{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shellsense: load extraction script")
}

func TestNew_ScriptsDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeScript(t, dir, "extract/bash.risor", `x := 1`)

	a := newTestAnalyzer(t, WithScriptsDir(dir))
	analyze(t, a, "file:///a.sh", "foo() { :; }\n")
	assert.Empty(t, a.FindSymbols("file:///a.sh"), "stub script emits nothing")
}

func TestOptions(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t,
		WithExtensions("sh", ".BATS"),
		WithSkipDirs("build"),
		WithGit(false),
		WithMaxFiles(3),
	)
	assert.Equal(t, map[string]bool{".sh": true, ".bats": true}, a.extensions)
	assert.True(t, a.skipDirs["build"])
	assert.True(t, a.skipDirs["node_modules"], "defaults kept")
	assert.False(t, a.useGit)
	assert.Equal(t, 3, a.maxFiles)
}

// =============================================================================
// Document lifecycle
// =============================================================================

func TestAnalyze_Idempotent(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	src := "build() {\n  out=1\n}\nbuild\n"

	analyze(t, a, "file:///a.sh", src)
	first := a.FindSymbols("file:///a.sh")
	firstRefs := a.FindReferences("build")

	analyze(t, a, "file:///a.sh", src)
	assert.Equal(t, first, a.FindSymbols("file:///a.sh"))
	assert.Equal(t, firstRefs, a.FindReferences("build"))
	assert.Equal(t, 2, a.Version("file:///a.sh"))
	assert.Equal(t, []string{"file:///a.sh"}, a.Documents())
}

func TestAnalyze_Freshness(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)

	analyze(t, a, "file:///a.sh", "old_fn() { :; }\n")
	require.Len(t, a.FindDefinition("old_fn"), 1)

	analyze(t, a, "file:///a.sh", "new_fn() { :; }\n")
	assert.Empty(t, a.FindDefinition("old_fn"))
	assert.Len(t, a.FindDefinition("new_fn"), 1)
	assert.Empty(t, a.FindReferences("old_fn"))
	text, ok := a.Text("file:///a.sh")
	require.True(t, ok)
	assert.Equal(t, "new_fn() { :; }\n", text)
}

func TestAnalyze_Isolation(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)

	analyze(t, a, "file:///a.sh", "alpha=1\n")
	analyze(t, a, "file:///b.sh", "beta=2\n")
	before := a.FindSymbols("file:///b.sh")

	analyze(t, a, "file:///a.sh", "if then fi (((\n")
	assert.Equal(t, before, a.FindSymbols("file:///b.sh"))
	assert.Empty(t, a.Diagnostics("file:///b.sh"))
	assert.Equal(t, 1, a.Version("file:///b.sh"))
}

func TestAnalyze_ReturnsDiagnostics(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)

	diags := analyze(t, a, "file:///bad.sh", "if then fi (((\n")
	require.NotEmpty(t, diags)
	assert.Equal(t, diags, a.Diagnostics("file:///bad.sh"))

	diags = analyze(t, a, "file:///bad.sh", "echo fixed\n")
	assert.Empty(t, diags)
	assert.Empty(t, a.Diagnostics("file:///bad.sh"))
}

func TestAnalyze_ScriptFailureKeepsPreviousDocument(t *testing.T) {
	t.Parallel()
	// Extracts functions normally but fails on any document with a comment.
	script := `
root := tree.RootNode()
for _, m := range query("(function_definition name: (word) @name) @decl", root) {
    emit_symbol("function", m["name"], m["decl"])
}
for _, m := range query("(comment) @c", root) {
    emit_symbol("class", m["c"], m["c"])
}
`
	a := newTestAnalyzer(t, WithScriptsFS(fstest.MapFS{
		"extract/bash.risor": &fstest.MapFile{Data: []byte(script)},
	}))

	analyze(t, a, "file:///a.sh", "good() { :; }\n")
	_, err := a.Analyze(context.Background(), "file:///a.sh", "# boom\nbad() { :; }\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shellsense: extract file:///a.sh")

	assert.Len(t, a.FindDefinition("good"), 1)
	assert.Empty(t, a.FindDefinition("bad"))
	assert.Equal(t, 1, a.Version("file:///a.sh"))
	text, _ := a.Text("file:///a.sh")
	assert.Equal(t, "good() { :; }\n", text)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, "file:///a.sh", "echo hi\n")
	require.Error(t, err)
	assert.False(t, a.Has("file:///a.sh"))
}

func TestRemove(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)

	analyze(t, a, "file:///a.sh", "foo() { :; }\n")
	analyze(t, a, "file:///b.sh", "foo() { :; }\n")
	analyze(t, a, "file:///c.sh", "x=1\n")

	assert.True(t, a.Remove("file:///b.sh"))
	assert.False(t, a.Remove("file:///b.sh"))
	assert.Equal(t, []string{"file:///a.sh", "file:///c.sh"}, a.Documents())
	assert.Len(t, a.FindDefinition("foo"), 1)
	assert.Zero(t, a.Version("file:///b.sh"))
	assert.Nil(t, a.Diagnostics("file:///b.sh"))

	// Re-adding appends at the end.
	analyze(t, a, "file:///b.sh", "foo() { :; }\n")
	assert.Equal(t, []string{"file:///a.sh", "file:///c.sh", "file:///b.sh"}, a.Documents())
	assert.Equal(t, 1, a.Version("file:///b.sh"), "version restarts after removal")
}

func TestDocuments_ReturnsCopy(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	analyze(t, a, "file:///a.sh", "x=1\n")

	docs := a.Documents()
	docs[0] = "mutated"
	assert.Equal(t, []string{"file:///a.sh"}, a.Documents())
}

func TestClose_Empties(t *testing.T) {
	t.Parallel()
	a, err := New()
	require.NoError(t, err)
	analyze(t, a, "file:///a.sh", "x=1\n")
	a.Close()
	assert.Empty(t, a.Documents())
	assert.False(t, a.Has("file:///a.sh"))
}

func TestScriptsHash_Stable(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	b := newTestAnalyzer(t)
	assert.Len(t, a.ScriptsHash(), 64)
	assert.Equal(t, a.ScriptsHash(), b.ScriptsHash())

	c := newTestAnalyzer(t, WithScriptsFS(fstest.MapFS{
		"extract/bash.risor": &fstest.MapFile{Data: []byte(`x := 1`)},
	}))
	assert.NotEqual(t, a.ScriptsHash(), c.ScriptsHash())
}

// =============================================================================
// Workspace discovery
// =============================================================================

func TestFromRoot_Walk(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeScript(t, root, "build.sh", "build() { :; }\n")
	writeScript(t, root, "lib/common.bash", "log_info() { echo \"$1\"; }\n")
	writeScript(t, root, "bin/deploy", "#!/usr/bin/env bash\ndeploy() { build; }\n")
	writeScript(t, root, "bin/tool.py", "#!/usr/bin/env python3\n")
	writeScript(t, root, "README", "not a script\n")
	writeScript(t, root, ".hidden/secret.sh", "secret=1\n")
	writeScript(t, root, "node_modules/pkg/install.sh", "npm_thing=1\n")
	writeScript(t, root, "third_party/ext.sh", "ext=1\n")

	a, err := FromRoot(context.Background(), root, WithGit(false), WithSkipDirs("third_party"))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	var names []string
	for _, uri := range a.Documents() {
		rel, err := filepath.Rel(root, URIToPath(uri))
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"build.sh", "lib/common.bash", "bin/deploy"}, names)

	assert.Len(t, a.FindDefinition("deploy"), 1)
	assert.Empty(t, a.FindDefinition("secret"))
	assert.Empty(t, a.FindDefinition("npm_thing"))
}

func TestFromRoot_CustomExtensions(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeScript(t, root, "a.sh", "a=1\n")
	writeScript(t, root, "b.bats", "b=1\n")

	a, err := FromRoot(context.Background(), root, WithGit(false), WithExtensions(".bats"))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.Len(t, a.Documents(), 1)
	assert.Equal(t, "b.bats", filepath.Base(URIToPath(a.Documents()[0])))
}

func TestFromRoot_MaxFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	for _, name := range []string{"a.sh", "b.sh", "c.sh"} {
		writeScript(t, root, name, "x=1\n")
	}

	a, err := FromRoot(context.Background(), root, WithGit(false), WithMaxFiles(2))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.Len(t, a.Documents(), 2)
}

func TestFromRoot_MissingRoot(t *testing.T) {
	t.Parallel()
	_, err := FromRoot(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shellsense: root")
}

func TestFromRoot_RootIsFile(t *testing.T) {
	t.Parallel()
	path := writeScript(t, t.TempDir(), "a.sh", "x=1\n")
	_, err := FromRoot(context.Background(), path)
	require.Error(t, err)
}

func TestFromRoot_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()
	root := t.TempDir()
	writeScript(t, root, "kept.sh", "kept=1\n")
	writeScript(t, root, "ignored/gen.sh", "gen=1\n")
	writeScript(t, root, ".gitignore", "ignored/\n")

	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = root
	require.NoError(t, cmd.Run())

	a, err := FromRoot(context.Background(), root)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Len(t, a.FindDefinition("kept"), 1)
	assert.Empty(t, a.FindDefinition("gen"), ".gitignore respected")
}

func TestFromRoot_GitNonASCIINames(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()
	root := t.TempDir()
	writeScript(t, root, "déjà.sh", "foo() { :; }\n")
	writeScript(t, root, "répertoire/naïve.sh", "bar=1\n")

	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = root
	require.NoError(t, cmd.Run())

	a, err := FromRoot(context.Background(), root)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.Len(t, a.Documents(), 2)
	defs := a.FindDefinition("foo")
	require.Len(t, defs, 1)
	assert.Equal(t, filepath.Join(root, "déjà.sh"), URIToPath(defs[0].URI))
	assert.Len(t, a.FindDefinition("bar"), 1)
}

func TestFromRoot_UnreadableFileSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read everything")
	}
	t.Parallel()
	root := t.TempDir()
	writeScript(t, root, "ok.sh", "ok=1\n")
	locked := writeScript(t, root, "locked.sh", "locked=1\n")
	require.NoError(t, os.Chmod(locked, 0))

	a, err := FromRoot(context.Background(), root, WithGit(false))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.Len(t, a.Documents(), 1)
}

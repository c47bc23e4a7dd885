package main_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the shellsense binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "shellsense"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "shellsense")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the module by walking up from the test
// file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

// createFixture creates a workspace with a .git dir and two scripts.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	lib := `log() {
  local level="$1"
  echo "[$level] $2"
}
`
	deploy := `#!/bin/bash
source lib.sh
TARGET=prod
log info "deploying $TARGET"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.sh"), []byte(lib), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.sh"), []byte(deploy), 0o644))
	return dir
}

func run(t *testing.T, bin, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

// runQuery executes a query command and returns the parsed CLIResult.
func runQuery(t *testing.T, bin, dir string, args ...string) map[string]any {
	t.Helper()
	stdout, _, err := run(t, bin, dir, append([]string{"query", "--no-git"}, args...)...)
	if err != nil && stdout == "" {
		t.Fatalf("query command failed with no output: %v", err)
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), "invalid JSON output: %s", stdout)
	return result
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	t.Run("index writes database", func(t *testing.T) {
		dir := createFixture(t)
		dbPath := filepath.Join(dir, ".shellsense", "index.db")

		_, stderr, err := run(t, bin, dir, "index", "--no-git", dir)
		require.NoError(t, err, stderr)
		require.FileExists(t, dbPath)
		assert.Contains(t, stderr, "Indexed")
		assert.Contains(t, stderr, "2 written")
		assert.Equal(t, 2, countRows(t, dbPath, "files"))
		assert.Equal(t, 3, countRows(t, dbPath, "symbols"))

		_, stderr, err = run(t, bin, dir, "index", "--no-git", dir)
		require.NoError(t, err, stderr)
		assert.Contains(t, stderr, "0 written, 2 unchanged")

		_, stderr, err = run(t, bin, dir, "index", "--no-git", "--force", dir)
		require.NoError(t, err, stderr)
		assert.Contains(t, stderr, "Cleared database")
		assert.Contains(t, stderr, "2 written")
	})

	t.Run("index custom db path", func(t *testing.T) {
		dir := createFixture(t)
		custom := filepath.Join(t.TempDir(), "custom.db")
		_, stderr, err := run(t, bin, dir, "index", "--no-git", "--db", custom, dir)
		require.NoError(t, err, stderr)
		assert.FileExists(t, custom)
	})

	t.Run("index missing directory", func(t *testing.T) {
		_, stderr, err := run(t, bin, t.TempDir(), "index", "/nonexistent/path")
		require.Error(t, err)
		assert.Contains(t, stderr, "directory not found")
	})

	t.Run("query definition", func(t *testing.T) {
		dir := createFixture(t)
		result := runQuery(t, bin, dir, "definition", "log")
		assert.Equal(t, "definition", result["command"])
		assert.EqualValues(t, 1, result["total_count"])
		results := result["results"].([]any)
		sym := results[0].(map[string]any)
		assert.Equal(t, "log", sym["name"])
		assert.Equal(t, "function", sym["kind"])
		assert.Equal(t, filepath.Join(dir, "lib.sh"), sym["file"])
	})

	t.Run("query references", func(t *testing.T) {
		dir := createFixture(t)
		result := runQuery(t, bin, dir, "references", "TARGET")
		assert.EqualValues(t, 2, result["total_count"])
		first := result["results"].([]any)[0].(map[string]any)
		assert.Equal(t, true, first["is_declaration"])
	})

	t.Run("query symbols and word", func(t *testing.T) {
		dir := createFixture(t)
		result := runQuery(t, bin, dir, "symbols", "lib.sh")
		results := result["results"].([]any)
		require.Len(t, results, 2)
		assert.Equal(t, "level", results[1].(map[string]any)["name"])
		assert.Equal(t, "log", results[1].(map[string]any)["container"])

		result = runQuery(t, bin, dir, "word", "deploy.sh", "3", "1")
		assert.Equal(t, "log", result["results"].(map[string]any)["word"])

		result = runQuery(t, bin, dir, "word", "deploy.sh", "999", "0")
		assert.Nil(t, result["results"])
	})

	t.Run("query completions and diagnostics", func(t *testing.T) {
		dir := createFixture(t)
		result := runQuery(t, bin, dir, "completions", "deploy.sh")
		labels := map[string]bool{}
		for _, r := range result["results"].([]any) {
			labels[r.(map[string]any)["label"].(string)] = true
		}
		assert.True(t, labels["TARGET"])
		assert.True(t, labels["fi"])
		assert.False(t, labels["log"], "completions are per document")

		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.sh"), []byte("if true; then\n"), 0o644))
		result = runQuery(t, bin, dir, "diagnostics", "broken.sh")
		assert.NotEmpty(t, result["results"])
	})

	t.Run("query from index", func(t *testing.T) {
		dir := createFixture(t)
		_, stderr, err := run(t, bin, dir, "index", "--no-git", dir)
		require.NoError(t, err, stderr)

		result := runQuery(t, bin, dir, "--index", "search", "l", "--limit", "1")
		assert.EqualValues(t, 2, result["total_count"])
		assert.Len(t, result["results"], 1)

		result = runQuery(t, bin, dir, "--index", "references", "log")
		assert.EqualValues(t, 2, result["total_count"])

		result = runQuery(t, bin, dir, "--index", "word", "deploy.sh", "0", "0")
		assert.Contains(t, result["error"], "does not support --index")
	})

	t.Run("query index missing", func(t *testing.T) {
		dir := createFixture(t)
		result := runQuery(t, bin, dir, "--index", "search", "x")
		assert.Contains(t, result["error"], "database not found")
	})

	t.Run("text format", func(t *testing.T) {
		dir := createFixture(t)
		stdout, _, err := run(t, bin, dir, "--format", "text", "query", "--no-git", "references", "TARGET")
		require.NoError(t, err)
		assert.Contains(t, stdout, filepath.Join(dir, "deploy.sh")+":2:0 (declaration)")

		_, stderr, err := run(t, bin, dir, "--format", "text", "query", "--no-git", "word", "deploy.sh", "x", "0")
		require.Error(t, err)
		assert.Contains(t, stderr, "invalid line")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, stderr, err := run(t, bin, t.TempDir(), "--format", "yaml", "query", "search")
		require.Error(t, err)
		assert.Contains(t, stderr, "invalid format")
	})
}

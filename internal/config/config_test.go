package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, *cfg.UseGit)
	assert.True(t, cfg.IncludeReservedWords())
	assert.Equal(t, logging.WARNING, cfg.Level())
	assert.Equal(t, filepath.Join(root, DefaultDB), cfg.DBPath(root))
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(t.TempDir(), "/nonexistent/shellsense.jsonnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestLoad_File(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
local extra = ["vendor"];
{
  extensions: [".sh", ".bats"],
  skipDirs: ["third_party"] + extra,
  useGit: false,
  maxFiles: 200,
  logLevel: "debug",
  db: std.extVar("root") + "/cache/index.db",
  reservedWords: false,
}
`)

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{".sh", ".bats"}, cfg.Extensions)
	assert.Equal(t, []string{"third_party", "vendor"}, cfg.SkipDirs)
	assert.False(t, *cfg.UseGit)
	assert.Equal(t, 200, cfg.MaxFiles)
	assert.Equal(t, logging.DEBUG, cfg.Level())
	assert.Equal(t, filepath.Join(root, "cache", "index.db"), cfg.DBPath(root))
	assert.False(t, cfg.IncludeReservedWords())
	assert.Len(t, cfg.AnalyzerOptions(), 4)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{ maxFiles: 10 }`)

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxFiles)
	assert.True(t, *cfg.UseGit)
	assert.Equal(t, "WARNING", cfg.LogLevel)
}

func TestLoad_ImportRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "common.libsonnet"),
		[]byte(`{ skipDirs: ["build"] }`), 0o644))
	writeConfig(t, root, `(import "common.libsonnet") + { maxFiles: 5 }`)

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, cfg.SkipDirs)
	assert.Equal(t, 5, cfg.MaxFiles)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    string
	}{
		{"syntax error", `{ maxFiles: }`, "config: evaluate"},
		{"unknown field", `{ extension: [".sh"] }`, "config: decode"},
		{"wrong type", `{ maxFiles: "ten" }`, "config: decode"},
		{"negative max files", `{ maxFiles: -1 }`, "maxFiles"},
		{"bad log level", `{ logLevel: "loud" }`, "logLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate("/ws", "test.jsonnet", tt.snippet)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDBPath(t *testing.T) {
	cfg := Default()
	cfg.DB = "/abs/index.db"
	assert.Equal(t, "/abs/index.db", cfg.DBPath("/ws"))

	cfg.DB = "rel/index.db"
	assert.Equal(t, filepath.Join("/ws", "rel", "index.db"), cfg.DBPath("/ws"))
}

func TestAnalyzerOptions_Empty(t *testing.T) {
	cfg := &Config{}
	assert.Empty(t, cfg.AnalyzerOptions())
	assert.True(t, cfg.IncludeReservedWords())
}

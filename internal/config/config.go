// Package config loads the optional .shellsense.jsonnet workspace file.
//
// The file is evaluated as Jsonnet with the external variable "root" bound
// to the workspace root, so configs can compute paths:
//
//	{
//	  extensions: [".sh", ".bash"],
//	  skipDirs: ["third_party"],
//	  db: std.extVar("root") + "/.cache/shellsense.db",
//	}
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/go-jsonnet"
	"github.com/op/go-logging"

	"github.com/jward/shellsense"
)

// FileName is the config file looked up in the workspace root.
const FileName = ".shellsense.jsonnet"

// DefaultDB is the index location relative to the workspace root.
const DefaultDB = ".shellsense/index.db"

// Config holds workspace settings. Pointer fields distinguish "unset" from
// the zero value so flags and defaults can fill them in.
type Config struct {
	Extensions    []string `json:"extensions,omitempty"`
	SkipDirs      []string `json:"skipDirs,omitempty"`
	UseGit        *bool    `json:"useGit,omitempty"`
	MaxFiles      int      `json:"maxFiles,omitempty"`
	LogLevel      string   `json:"logLevel,omitempty"`
	DB            string   `json:"db,omitempty"`
	ReservedWords *bool    `json:"reservedWords,omitempty"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	useGit, reserved := true, true
	return &Config{
		UseGit:        &useGit,
		LogLevel:      "WARNING",
		ReservedWords: &reserved,
	}
}

// Load reads path, or root/.shellsense.jsonnet when path is empty. A missing
// default file yields Default(); a missing explicit path is an error.
func Load(root, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Evaluate(root, path, string(data))
}

// Evaluate evaluates a Jsonnet snippet and merges it over Default().
// filename is used for error messages and relative imports.
func Evaluate(root, filename, snippet string) (*Config, error) {
	vm := jsonnet.MakeVM()
	vm.ExtVar("root", root)
	vm.Importer(&jsonnet.FileImporter{JPaths: []string{root}})

	out, err := vm.EvaluateAnonymousSnippet(filename, snippet)
	if err != nil {
		return nil, fmt.Errorf("config: evaluate %s: %w", filename, err)
	}

	var file Config
	dec := json.NewDecoder(bytes.NewReader([]byte(out)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", filename, err)
	}

	cfg := Default()
	cfg.merge(&file)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Extensions != nil {
		c.Extensions = o.Extensions
	}
	if o.SkipDirs != nil {
		c.SkipDirs = o.SkipDirs
	}
	if o.UseGit != nil {
		c.UseGit = o.UseGit
	}
	if o.MaxFiles != 0 {
		c.MaxFiles = o.MaxFiles
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.DB != "" {
		c.DB = o.DB
	}
	if o.ReservedWords != nil {
		c.ReservedWords = o.ReservedWords
	}
}

func (c *Config) validate() error {
	if c.MaxFiles < 0 {
		return fmt.Errorf("maxFiles must not be negative, got %d", c.MaxFiles)
	}
	if _, err := logging.LogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("logLevel %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the configured log level, WARNING if it does not parse.
func (c *Config) Level() logging.Level {
	level, err := logging.LogLevel(c.LogLevel)
	if err != nil {
		return logging.WARNING
	}
	return level
}

// DBPath resolves the index location against root.
func (c *Config) DBPath(root string) string {
	db := c.DB
	if db == "" {
		db = DefaultDB
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(root, db)
}

// IncludeReservedWords reports whether editors should be offered keywords.
func (c *Config) IncludeReservedWords() bool {
	return c.ReservedWords == nil || *c.ReservedWords
}

// AnalyzerOptions converts the config into Analyzer options.
func (c *Config) AnalyzerOptions() []shellsense.Option {
	var opts []shellsense.Option
	if len(c.Extensions) > 0 {
		opts = append(opts, shellsense.WithExtensions(c.Extensions...))
	}
	if len(c.SkipDirs) > 0 {
		opts = append(opts, shellsense.WithSkipDirs(c.SkipDirs...))
	}
	if c.UseGit != nil {
		opts = append(opts, shellsense.WithGit(*c.UseGit))
	}
	if c.MaxFiles > 0 {
		opts = append(opts, shellsense.WithMaxFiles(c.MaxFiles))
	}
	return opts
}

package shellsense

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/op/go-logging"

	"github.com/jward/shellsense/internal/runtime"
	"github.com/jward/shellsense/internal/store"
	"github.com/jward/shellsense/internal/syntax"
	"github.com/jward/shellsense/scripts"
)

var log = logging.MustGetLogger("shellsense")

// Analyzer owns one Document per tracked URI and answers queries against
// the current snapshot. It is not safe for concurrent use.
type Analyzer struct {
	parser     *syntax.Parser
	runtime    *runtime.Runtime
	scriptsDir string
	scriptsFS  fs.FS

	extensions map[string]bool // nil means the syntax package defaults
	skipDirs   map[string]bool
	useGit     bool
	maxFiles   int // 0 means unlimited

	docs  map[string]*Document
	order []string // URIs in indexing order
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithScriptsDir loads extraction scripts from dir on disk instead of the
// embedded copies.
func WithScriptsDir(dir string) Option {
	return func(a *Analyzer) {
		a.scriptsDir = dir
		a.scriptsFS = nil
	}
}

// WithScriptsFS loads extraction scripts from fsys.
func WithScriptsFS(fsys fs.FS) Option {
	return func(a *Analyzer) {
		a.scriptsFS = fsys
		a.scriptsDir = ""
	}
}

// WithExtensions replaces the set of file extensions treated as shell
// scripts during workspace discovery. Extensions include the leading dot.
func WithExtensions(exts ...string) Option {
	return func(a *Analyzer) {
		a.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			a.extensions[strings.ToLower(ext)] = true
		}
	}
}

// WithSkipDirs adds directory names excluded from workspace discovery.
func WithSkipDirs(dirs ...string) Option {
	return func(a *Analyzer) {
		for _, d := range dirs {
			a.skipDirs[d] = true
		}
	}
}

// WithGit controls whether discovery asks git for the file list when the
// root is inside a work tree. Enabled by default.
func WithGit(useGit bool) Option {
	return func(a *Analyzer) {
		a.useGit = useGit
	}
}

// WithMaxFiles caps how many files discovery analyzes. Zero means no cap.
func WithMaxFiles(n int) Option {
	return func(a *Analyzer) {
		a.maxFiles = n
	}
}

// New creates an empty Analyzer. Scripts come from the embedded scripts.FS
// unless WithScriptsDir or WithScriptsFS says otherwise. The bash grammar
// and the extraction script are loaded up front so a broken installation
// fails here rather than on the first document.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		scriptsFS: scripts.FS,
		skipDirs:  defaultSkipDirs(),
		useGit:    true,
		docs:      make(map[string]*Document),
	}
	for _, opt := range opts {
		opt(a)
	}

	parser, err := syntax.NewParser()
	if err != nil {
		return nil, fmt.Errorf("shellsense: %w", err)
	}
	a.parser = parser

	var rtOpts []runtime.RuntimeOption
	if a.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(a.scriptsFS))
	}
	a.runtime = runtime.NewRuntime(a.scriptsDir, rtOpts...)

	if _, err := a.runtime.LoadScript(runtime.ExtractionScriptPath(syntax.Bash)); err != nil {
		return nil, fmt.Errorf("shellsense: load extraction script: %w", err)
	}
	return a, nil
}

// FromRoot creates an Analyzer and analyzes every shell script discovered
// under root.
func FromRoot(ctx context.Context, root string, opts ...Option) (*Analyzer, error) {
	a, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := a.IndexDirectory(ctx, root); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases every document's syntax tree. The Analyzer is empty
// afterwards.
func (a *Analyzer) Close() {
	for _, d := range a.docs {
		d.close()
	}
	a.docs = make(map[string]*Document)
	a.order = nil
}

// Analyze parses text, extracts symbols and occurrences, and replaces the
// document for uri. It returns the new document's diagnostics. An error is
// returned only when the extraction script fails; the previous document is
// then left untouched.
func (a *Analyzer) Analyze(ctx context.Context, uri string, text string) ([]Diagnostic, error) {
	src := []byte(text)
	tree, err := a.parser.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("shellsense: parse %s: %w", uri, err)
	}

	batch := store.NewBatch(0)
	if err := a.runtime.Extract(ctx, uri, tree, src, batch); err != nil {
		tree.Close()
		return nil, fmt.Errorf("shellsense: extract %s: %w", uri, err)
	}

	version := 1
	old, existed := a.docs[uri]
	if existed {
		version = old.version + 1
	}
	doc := newDocument(uri, src, version, tree, batch)

	a.docs[uri] = doc
	if existed {
		old.close()
	} else {
		a.order = append(a.order, uri)
	}
	return a.Diagnostics(uri), nil
}

// Remove forgets uri. It reports whether the document was tracked.
func (a *Analyzer) Remove(uri string) bool {
	doc, ok := a.docs[uri]
	if !ok {
		return false
	}
	doc.close()
	delete(a.docs, uri)
	for i, u := range a.order {
		if u == uri {
			a.order = append(a.order[:i:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Documents returns the tracked URIs in indexing order.
func (a *Analyzer) Documents() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Has reports whether uri is tracked.
func (a *Analyzer) Has(uri string) bool {
	_, ok := a.docs[uri]
	return ok
}

// Diagnostics returns the syntax diagnostics of uri's current document.
func (a *Analyzer) Diagnostics(uri string) []Diagnostic {
	doc, ok := a.docs[uri]
	if !ok {
		return nil
	}
	out := make([]Diagnostic, len(doc.diags))
	copy(out, doc.diags)
	return out
}

// Version returns how many times uri has been analyzed, or 0 when it is not
// tracked.
func (a *Analyzer) Version(uri string) int {
	if doc, ok := a.docs[uri]; ok {
		return doc.version
	}
	return 0
}

// Text returns the source text of uri's current document.
func (a *Analyzer) Text(uri string) (string, bool) {
	doc, ok := a.docs[uri]
	if !ok {
		return "", false
	}
	return string(doc.text), true
}

// ScriptsHash computes a SHA-256 over every .risor script the Analyzer
// loads, sorted by path. Export compares it with the stored value to decide
// whether unchanged files must be rewritten anyway.
func (a *Analyzer) ScriptsHash() string {
	var paths []string

	if a.scriptsFS != nil {
		fs.WalkDir(a.scriptsFS, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				paths = append(paths, path)
			}
			return nil
		})
	} else if a.scriptsDir != "" {
		filepath.WalkDir(a.scriptsDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				rel, _ := filepath.Rel(a.scriptsDir, path)
				paths = append(paths, rel)
			}
			return nil
		})
	}

	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		src, err := a.runtime.LoadScript(p)
		if err != nil {
			continue
		}
		h.Write([]byte(p))
		h.Write([]byte(src))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

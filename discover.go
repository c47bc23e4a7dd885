package shellsense

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jward/shellsense/internal/syntax"
)

// defaultSkipDirs are directory names never descended into during discovery.
func defaultSkipDirs() map[string]bool {
	return map[string]bool{
		"node_modules": true,
		"vendor":       true,
		"__pycache__":  true,
	}
}

// IndexDirectory discovers shell scripts under root and analyzes each one.
// If root is inside a git work tree (and WithGit is on), git ls-files is
// used so .gitignore is respected; otherwise the filesystem is walked.
// Hidden directories and skip dirs are excluded either way.
//
// An unreadable root is an error. Files that cannot be read or analyzed
// are logged and skipped.
func (a *Analyzer) IndexDirectory(ctx context.Context, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("shellsense: root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("shellsense: root %s is not a directory", root)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("shellsense: root: %w", err)
	}

	var paths []string
	if a.useGit {
		paths, err = a.gitListFiles(root)
		if err != nil {
			log.Debugf("git discovery unavailable for %s, walking: %v", root, err)
		}
	}
	if !a.useGit || err != nil {
		paths, err = a.walkListFiles(root)
		if err != nil {
			return fmt.Errorf("shellsense: %w", err)
		}
	}

	if a.maxFiles > 0 && len(paths) > a.maxFiles {
		log.Warningf("%s: %d scripts found, analyzing the first %d", root, len(paths), a.maxFiles)
		paths = paths[:a.maxFiles]
	}

	var indexed int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("shellsense: index %s: %w", root, err)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			log.Warningf("skipping %s: %v", path, err)
			continue
		}
		if _, err := a.Analyze(ctx, PathToURI(path), string(src)); err != nil {
			log.Warningf("skipping %s: %v", path, err)
			continue
		}
		indexed++
	}
	log.Infof("indexed %d of %d script(s) under %s", indexed, len(paths), root)
	return nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to shell scripts.
func (a *Analyzer) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	// -z: NUL-terminated and unquoted, so non-ASCII names come through as-is.
	cmd := exec.Command("git", "ls-files", "-z", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\x00") {
		if line == "" {
			continue
		}
		if a.skippedPath(filepath.Dir(filepath.FromSlash(line))) {
			continue
		}
		absPath := filepath.Join(root, line)
		if a.isScript(absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used when git is
// disabled or unavailable.
func (a *Analyzer) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warningf("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && a.skippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if a.isScript(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func (a *Analyzer) skippedDir(name string) bool {
	return strings.HasPrefix(name, ".") || a.skipDirs[name]
}

// skippedPath reports whether any component of the relative dir is skipped.
func (a *Analyzer) skippedPath(dir string) bool {
	if dir == "." || dir == "" {
		return false
	}
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		if a.skippedDir(part) {
			return true
		}
	}
	return false
}

// isScript matches by extension, falling back to a shebang sniff for files
// without one.
func (a *Analyzer) isScript(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if a.extensions != nil {
		if a.extensions[ext] {
			return true
		}
	} else if _, ok := syntax.LanguageForFile(path); ok {
		return true
	}
	if ext != "" {
		return false
	}
	return hasShellShebang(path)
}

func hasShellShebang(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	line, _, err := bufio.NewReader(f).ReadLine()
	if err != nil {
		return false
	}
	_, ok := syntax.LanguageForSource(line)
	return ok
}

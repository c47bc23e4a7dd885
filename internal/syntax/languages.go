package syntax

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
)

// Bash is the canonical language name for every shell dialect the grammar
// accepts. The grammar is bash's, so sh/ksh/zsh scripts are parsed with it
// and any dialect-only syntax surfaces as diagnostics.
const Bash = "bash"

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".sh":      Bash,
	".bash":    Bash,
	".inc":     Bash,
	".command": Bash,
	".ksh":     Bash,
	".zsh":     Bash,
}

// shellInterpreters are the interpreter basenames recognized on a shebang line.
var shellInterpreters = map[string]bool{
	"sh":   true,
	"bash": true,
	"dash": true,
	"ash":  true,
	"ksh":  true,
	"mksh": true,
	"zsh":  true,
}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			Bash: bash.GetLanguage(),
		}
	})
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// LanguageForSource sniffs the shebang line of src. Both direct interpreter
// paths (#!/bin/bash) and env indirection (#!/usr/bin/env -S bash -e) are
// recognized.
func LanguageForSource(src []byte) (string, bool) {
	if !bytes.HasPrefix(src, []byte("#!")) {
		return "", false
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(src)).ReadLine()
	fields := strings.Fields(strings.TrimPrefix(string(line), "#!"))
	if len(fields) == 0 {
		return "", false
	}

	interp := filepath.Base(fields[0])
	if interp == "env" {
		interp = ""
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "-") {
				continue
			}
			interp = filepath.Base(f)
			break
		}
	}
	if shellInterpreters[interp] {
		return Bash, true
	}
	return "", false
}

// GrammarForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func GrammarForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}

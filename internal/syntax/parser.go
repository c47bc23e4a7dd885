package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser turns shell source into tree-sitter syntax trees. It holds only the
// grammar, which is read-only, so one Parser serves every document.
type Parser struct {
	lang *sitter.Language
}

// NewParser loads the bash grammar. The grammar is linked into the binary, so
// the only failure mode is a broken build; callers treat it as fatal.
func NewParser() (*Parser, error) {
	lang, ok := GrammarForLanguage(Bash)
	if !ok || lang == nil {
		return nil, fmt.Errorf("syntax: %s grammar unavailable", Bash)
	}
	return &Parser{lang: lang}, nil
}

// Language returns the grammar used by the parser.
func (p *Parser) Language() *sitter.Language {
	return p.lang
}

// Parse parses src into a fresh tree. Malformed shell never produces an
// error here: the tree carries ERROR and MISSING nodes instead. The returned
// error only reports a cancelled context or an internal tree-sitter failure.
func (p *Parser) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("syntax: parse: %w", err)
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

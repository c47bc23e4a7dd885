package lsp

import (
	"context"
	"os"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/shellsense"
)

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := shellsense.NormalizeURI(params.TextDocument.URI)
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		s.open[uri] = true
		s.analyze(ctx, a, uri, params.TextDocument.Text)
	})
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := shellsense.NormalizeURI(params.TextDocument.URI)
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		text, _ := a.Text(uri)
		for _, change := range params.ContentChanges {
			switch c := change.(type) {
			case protocol.TextDocumentContentChangeEventWhole:
				text = c.Text
			case protocol.TextDocumentContentChangeEvent:
				// Full sync is advertised; apply ranged edits anyway for
				// clients that ignore it.
				text = applyChange(text, c)
			}
		}
		s.analyze(ctx, a, uri, text)
	})
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := shellsense.NormalizeURI(params.TextDocument.URI)
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		delete(s.open, uri)
		if s.onDisk[uri] {
			// Unsaved edits are dropped; the disk copy stays indexed.
			if data, err := os.ReadFile(shellsense.URIToPath(uri)); err == nil {
				if _, err := a.Analyze(context.Background(), uri, string(data)); err != nil {
					log.Warningf("%s", err)
				}
			} else {
				log.Warningf("re-read %s: %s", uri, err)
				delete(s.onDisk, uri)
				a.Remove(uri)
			}
		} else {
			a.Remove(uri)
		}
	})

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// analyze re-indexes uri and publishes its diagnostics. Extraction failures
// keep the previous document and are only logged.
func (s *Server) analyze(ctx *glsp.Context, a *shellsense.Analyzer, uri, text string) {
	diags, err := a.Analyze(context.Background(), uri, text)
	if err != nil {
		log.Errorf("%s", err)
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toDiagnostics(text, diags),
	})
}

func applyChange(text string, c protocol.TextDocumentContentChangeEvent) string {
	start := offset(text, c.Range.Start)
	end := offset(text, c.Range.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + c.Text + text[end:]
}

// offset converts an LSP position into a byte offset in text.
func offset(text string, pos protocol.Position) int {
	line, col := point(text, pos)
	off := 0
	for i := 0; i < line; i++ {
		idx := strings.IndexByte(text[off:], '\n')
		if idx < 0 {
			return len(text)
		}
		off += idx + 1
	}
	if off+col > len(text) {
		return len(text)
	}
	return off + col
}

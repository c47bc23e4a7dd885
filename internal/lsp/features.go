package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/shellsense"
)

// wordAt returns the word under the cursor.
func wordAt(a *shellsense.Analyzer, uri string, pos protocol.Position) (string, bool) {
	text, ok := a.Text(uri)
	if !ok {
		return "", false
	}
	line, col := point(text, pos)
	return a.WordAtPoint(uri, line, col)
}

// wordBefore is wordAt, falling back to the character left of the cursor
// since completion requests arrive with the cursor past the typed text.
func wordBefore(a *shellsense.Analyzer, uri string, pos protocol.Position) (string, bool) {
	text, ok := a.Text(uri)
	if !ok {
		return "", false
	}
	line, col := point(text, pos)
	if word, ok := a.WordAtPoint(uri, line, col); ok {
		return word, true
	}
	if col == 0 {
		return "", false
	}
	return a.WordAtPoint(uri, line, col-1)
}

// toLocations converts analyzer locations, using each target document's
// text for column conversion.
func toLocations(a *shellsense.Analyzer, locs []shellsense.Location) []protocol.Location {
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		text, _ := a.Text(loc.URI)
		out = append(out, protocol.Location{
			URI:   loc.URI,
			Range: toRange(text, loc.Range),
		})
	}
	return out
}

func (s *Server) definition(ctx *glsp.Context, params *protocol.DefinitionParams) (interface{}, error) {
	var out []protocol.Location
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		word, ok := wordAt(a, shellsense.NormalizeURI(params.TextDocument.URI), params.Position)
		if !ok {
			return
		}
		out = toLocations(a, a.FindDefinition(word))
	})
	return out, nil
}

func (s *Server) references(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	var out []protocol.Location
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		word, ok := wordAt(a, shellsense.NormalizeURI(params.TextDocument.URI), params.Position)
		if !ok {
			return
		}
		if params.Context.IncludeDeclaration {
			out = toLocations(a, a.FindReferences(word))
			return
		}
		var locs []shellsense.Location
		for _, uri := range a.Documents() {
			for _, occ := range a.FindOccurrences(uri, word) {
				if !occ.IsDeclaration {
					locs = append(locs, shellsense.Location{URI: uri, Range: occ.Range})
				}
			}
		}
		out = toLocations(a, locs)
	})
	return out, nil
}

func (s *Server) documentHighlight(ctx *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	var out []protocol.DocumentHighlight
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		uri := shellsense.NormalizeURI(params.TextDocument.URI)
		word, ok := wordAt(a, uri, params.Position)
		if !ok {
			return
		}
		text, _ := a.Text(uri)
		for _, occ := range a.FindOccurrences(uri, word) {
			kind := protocol.DocumentHighlightKindRead
			if occ.IsDeclaration {
				kind = protocol.DocumentHighlightKindWrite
			}
			out = append(out, protocol.DocumentHighlight{
				Range: toRange(text, occ.Range),
				Kind:  &kind,
			})
		}
	})
	return out, nil
}

func (s *Server) documentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (interface{}, error) {
	var out []protocol.DocumentSymbol
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		uri := shellsense.NormalizeURI(params.TextDocument.URI)
		text, ok := a.Text(uri)
		if !ok {
			return
		}
		out = documentSymbols(text, a.FindSymbols(uri))
	})
	return out, nil
}

func (s *Server) workspaceSymbol(ctx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	var out []protocol.SymbolInformation
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		for _, sym := range a.Search(params.Query) {
			text, _ := a.Text(sym.URI)
			info := protocol.SymbolInformation{
				Name: sym.Name,
				Kind: symbolKind(sym.Kind),
				Location: protocol.Location{
					URI:   sym.URI,
					Range: toRange(text, sym.NameRange),
				},
			}
			if sym.Container != "" {
				container := sym.Container
				info.ContainerName = &container
			}
			out = append(out, info)
		}
	})
	return out, nil
}

// completion offers the document's symbols and, when enabled, reserved
// words. Inside a comment nothing is offered.
func (s *Server) completion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	out := []protocol.CompletionItem{}
	s.dispatch.Do(func(a *shellsense.Analyzer) {
		uri := shellsense.NormalizeURI(params.TextDocument.URI)
		if word, ok := wordBefore(a, uri, params.Position); ok && strings.HasPrefix(word, "#") {
			return
		}
		candidates := a.FindSymbolCompletions(uri)
		if s.reserved {
			candidates = append(candidates, shellsense.ReservedCandidates()...)
		}
		for _, c := range candidates {
			kind := completionKind(c)
			item := protocol.CompletionItem{Label: c.Name, Kind: &kind}
			if c.SymbolKind != "" {
				detail := c.SymbolKind
				item.Detail = &detail
			}
			out = append(out, item)
		}
	})
	return out, nil
}

package lsp

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/shellsense"
)

// The analyzer counts columns in bytes; LSP counts UTF-16 code units.

// lineText returns line n of text without its newline, or "" past the end.
func lineText(text string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return ""
		}
		text = text[idx+1:]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return text
}

// byteCol converts a UTF-16 offset within line into a byte offset. Offsets
// past the end of the line map to the line length.
func byteCol(line string, char protocol.UInteger) int {
	units := 0
	for i, r := range line {
		if units >= int(char) {
			return i
		}
		units += utf16Len(r)
	}
	return len(line)
}

// utf16Col converts a byte offset within line into a UTF-16 offset.
func utf16Col(line string, col int) protocol.UInteger {
	if col > len(line) {
		col = len(line)
	}
	units := 0
	for _, r := range line[:col] {
		units += utf16Len(r)
	}
	return protocol.UInteger(units)
}

func utf16Len(r rune) int {
	if r == utf8.RuneError || r < 0x10000 {
		return 1
	}
	return 2
}

// point converts an LSP position in text into (line, byte column).
func point(text string, pos protocol.Position) (int, int) {
	line := int(pos.Line)
	return line, byteCol(lineText(text, line), pos.Character)
}

func toPosition(text string, line, col int) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: utf16Col(lineText(text, line), col),
	}
}

func toRange(text string, r shellsense.Range) protocol.Range {
	return protocol.Range{
		Start: toPosition(text, r.StartLine, r.StartCol),
		End:   toPosition(text, r.EndLine, r.EndCol),
	}
}

func toDiagnostics(text string, diags []shellsense.Diagnostic) []protocol.Diagnostic {
	source := serverName
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverity(d.Severity)
		out = append(out, protocol.Diagnostic{
			Range:    toRange(text, d.Range),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func symbolKind(kind string) protocol.SymbolKind {
	if kind == shellsense.KindFunction {
		return protocol.SymbolKindFunction
	}
	return protocol.SymbolKindVariable
}

func completionKind(c shellsense.CompletionCandidate) protocol.CompletionItemKind {
	switch {
	case c.Kind == shellsense.CandidateReserved:
		return protocol.CompletionItemKindKeyword
	case c.SymbolKind == shellsense.KindFunction:
		return protocol.CompletionItemKindFunction
	default:
		return protocol.CompletionItemKindVariable
	}
}

// documentSymbols nests variables under the function that declares them.
func documentSymbols(text string, syms []shellsense.Symbol) []protocol.DocumentSymbol {
	byID := make(map[int64]int)
	var out []protocol.DocumentSymbol
	var nested []shellsense.Symbol

	for _, sym := range syms {
		if sym.ParentSymbolID != nil {
			nested = append(nested, sym)
			continue
		}
		if sym.Kind == shellsense.KindFunction {
			byID[sym.ID] = len(out)
		}
		out = append(out, toDocumentSymbol(text, sym))
	}

	for _, sym := range nested {
		idx, ok := byID[*sym.ParentSymbolID]
		if !ok {
			// Nested function body: attach to the top level.
			out = append(out, toDocumentSymbol(text, sym))
			continue
		}
		out[idx].Children = append(out[idx].Children, toDocumentSymbol(text, sym))
	}
	return out
}

func toDocumentSymbol(text string, sym shellsense.Symbol) protocol.DocumentSymbol {
	ds := protocol.DocumentSymbol{
		Name:           sym.Name,
		Kind:           symbolKind(sym.Kind),
		Range:          toRange(text, sym.Range),
		SelectionRange: toRange(text, sym.NameRange),
	}
	if sym.Container != "" {
		detail := sym.Container
		ds.Detail = &detail
	}
	return ds
}

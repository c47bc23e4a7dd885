package shellsense

// CandidateKind tags where a completion candidate came from.
type CandidateKind string

const (
	CandidateSymbol     CandidateKind = "symbol"
	CandidateReserved   CandidateKind = "reserved_word"
	CandidateBuiltin    CandidateKind = "builtin"
	CandidateExecutable CandidateKind = "executable"
)

// CompletionCandidate is one completion suggestion. SymbolKind is set only
// for CandidateSymbol.
type CompletionCandidate struct {
	Kind       CandidateKind
	Name       string
	SymbolKind string
}

// ReservedWords are the bash keywords offered as completions by editors.
var ReservedWords = []string{
	"!", "[[", "]]", "{", "}",
	"case", "coproc", "do", "done", "elif", "else", "esac", "fi", "for",
	"function", "if", "in", "select", "then", "time", "until", "while",
}

// ReservedCandidates returns ReservedWords as completion candidates.
func ReservedCandidates() []CompletionCandidate {
	out := make([]CompletionCandidate, len(ReservedWords))
	for i, w := range ReservedWords {
		out[i] = CompletionCandidate{Kind: CandidateReserved, Name: w}
	}
	return out
}

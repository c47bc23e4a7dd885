package store

import (
	"sort"

	"github.com/jward/shellsense/internal/syntax"
)

// Batch buffers one document's extraction output in memory using fake
// (negative) IDs. Extraction writes to it through DataStore without knowing
// whether the rows end up in SQLite; CommitBatch remaps the fake IDs.
//
// A Batch is owned by a single analysis run and is not safe for concurrent
// use.
type Batch struct {
	FileID      int64
	Symbols     []Symbol
	Occurrences []Occurrence

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *Batch satisfies DataStore.
var _ DataStore = (*Batch)(nil)

// NewBatch creates an empty Batch. fileID is stamped on every row; it may
// be zero for documents that were never persisted.
func NewBatch(fileID int64) *Batch {
	return &Batch{FileID: fileID, nextFakeID: -1}
}

func (b *Batch) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *Batch) InsertSymbol(sym *Symbol) (int64, error) {
	fakeID := b.allocFakeID()
	sym.ID = fakeID
	sym.FileID = b.FileID
	b.Symbols = append(b.Symbols, *sym)
	return fakeID, nil
}

func (b *Batch) InsertOccurrence(occ *Occurrence) (int64, error) {
	fakeID := b.allocFakeID()
	occ.ID = fakeID
	occ.FileID = b.FileID
	b.Occurrences = append(b.Occurrences, *occ)
	return fakeID, nil
}

// SymbolsByFile returns the buffered symbols. fileID must match the batch.
func (b *Batch) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	if fileID != b.FileID {
		return nil, nil
	}
	out := make([]*Symbol, len(b.Symbols))
	for i := range b.Symbols {
		out[i] = &b.Symbols[i]
	}
	return out, nil
}

// FunctionAt returns the fake ID of the buffered function symbol whose
// declaration range is exactly rng.
func (b *Batch) FunctionAt(rng syntax.Range) (int64, bool) {
	for i := range b.Symbols {
		if b.Symbols[i].Kind == KindFunction && b.Symbols[i].Range == rng {
			return b.Symbols[i].ID, true
		}
	}
	return 0, false
}

// Sort orders symbols and occurrences by start position. Ties keep
// insertion order.
func (b *Batch) Sort() {
	sort.SliceStable(b.Symbols, func(i, j int) bool {
		return b.Symbols[i].Range.Before(b.Symbols[j].Range)
	})
	sort.SliceStable(b.Occurrences, func(i, j int) bool {
		return b.Occurrences[i].Range.Before(b.Occurrences[j].Range)
	})
}

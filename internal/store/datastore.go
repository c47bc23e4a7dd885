package store

// DataStore is the interface extraction writes through. Both Store (direct
// SQLite) and Batch (in-memory per-document buffer) implement it.
type DataStore interface {
	// Inserts return the assigned ID.
	InsertSymbol(sym *Symbol) (int64, error)
	InsertOccurrence(occ *Occurrence) (int64, error)

	SymbolsByFile(fileID int64) ([]*Symbol, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)

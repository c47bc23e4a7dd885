package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/shellsense/internal/syntax"
)

// CommitBatch writes one document into SQLite within a single transaction.
// Any rows previously stored for f.URI are replaced. Fake (negative) IDs in
// the batch are remapped to real ones and parent references rewritten
// through the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. File (upsert by URI)
//  2. Symbols (parents precede children in source order)
//  3. Occurrences
//  4. Diagnostics
func (s *Store) CommitBatch(f *File, batch *Batch, diags []syntax.Diagnostic) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fileID, err := upsertFileTx(tx, f)
	if err != nil {
		return fmt.Errorf("commit batch: file %s: %w", f.URI, err)
	}

	fakeToReal := make(map[int64]int64)

	// 1. Symbols
	for _, sym := range batch.Symbols {
		sym.FileID = fileID
		if sym.ParentSymbolID != nil && *sym.ParentSymbolID < 0 {
			realID, ok := fakeToReal[*sym.ParentSymbolID]
			if !ok {
				return fmt.Errorf("commit batch: symbol %q has parent_symbol_id=%d not in fakeToReal map", sym.Name, *sym.ParentSymbolID)
			}
			sym.ParentSymbolID = &realID
		}
		realID, err := insertSymbolTx(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	// 2. Occurrences
	for _, occ := range batch.Occurrences {
		occ.FileID = fileID
		if _, err := insertOccurrenceTx(tx, &occ); err != nil {
			return fmt.Errorf("commit batch: occurrence %q: %w", occ.Name, err)
		}
	}

	// 3. Diagnostics
	for _, d := range diags {
		if _, err := insertDiagnosticTx(tx, fileID, d); err != nil {
			return fmt.Errorf("commit batch: diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	f.ID = fileID
	return nil
}

// upsertFileTx inserts f or, when its URI already exists, updates the row
// and clears everything previously extracted from it.
func upsertFileTx(tx *sql.Tx, f *File) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM files WHERE uri = ?", f.URI).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.Exec(
			"INSERT INTO files (uri, path, language, hash, version, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
			f.URI, f.Path, f.Language, f.Hash, f.Version, f.LastIndexed,
		)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	case err != nil:
		return 0, err
	}

	if err := deleteFileRows(tx, id); err != nil {
		return 0, err
	}
	_, err = tx.Exec(
		"UPDATE files SET path = ?, language = ?, hash = ?, version = ?, last_indexed = ? WHERE id = ?",
		f.Path, f.Language, f.Hash, f.Version, f.LastIndexed, id,
	)
	return id, err
}

func insertSymbolTx(ex execer, sym *Symbol) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO symbols (file_id, name, kind, container,
			start_line, start_col, end_line, end_col,
			name_start_line, name_start_col, name_end_line, name_end_col, parent_symbol_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.Container,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
		sym.NameRange.StartLine, sym.NameRange.StartCol, sym.NameRange.EndLine, sym.NameRange.EndCol,
		sym.ParentSymbolID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertOccurrenceTx(ex execer, occ *Occurrence) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO occurrences (file_id, name, start_line, start_col, end_line, end_col, is_declaration)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		occ.FileID, occ.Name, occ.StartLine, occ.StartCol, occ.EndLine, occ.EndCol, occ.IsDeclaration,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDiagnosticTx(ex execer, fileID int64, d syntax.Diagnostic) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO diagnostics (file_id, severity, message, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fileID, int(d.Severity), d.Message, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// --- File operations ---

const fileCols = "id, uri, path, language, hash, version, last_indexed"

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (uri, path, language, hash, version, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.URI, f.Path, f.Language, f.Hash, f.Version, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var path, hash sql.NullString
	var version sql.NullInt64
	var indexed sql.NullTime
	if err := scanner.Scan(&f.ID, &f.URI, &path, &f.Language, &hash, &version, &indexed); err != nil {
		return nil, err
	}
	f.Path = path.String
	f.Hash = hash.String
	f.Version = int(version.Int64)
	f.LastIndexed = indexed.Time
	return f, nil
}

// FileByURI returns the file with the given URI, or nil when absent.
func (s *Store) FileByURI(uri string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE uri = ?", uri))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by uri: %w", err)
	}
	return f, nil
}

// Files returns every stored file ordered by URI.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY uri")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbolTx(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

// symbolSelect joins files so every scanned Symbol carries its URI.
const symbolSelect = `SELECT s.id, s.file_id, f.uri, s.name, s.kind, s.container,
	s.start_line, s.start_col, s.end_line, s.end_col,
	s.name_start_line, s.name_start_col, s.name_end_line, s.name_end_col,
	s.parent_symbol_id
	FROM symbols s JOIN files f ON f.id = s.file_id`

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var container sql.NullString
	var parent sql.NullInt64
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.URI, &sym.Name, &sym.Kind, &container,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
		&sym.NameRange.StartLine, &sym.NameRange.StartCol, &sym.NameRange.EndLine, &sym.NameRange.EndCol,
		&parent,
	)
	if err != nil {
		return nil, err
	}
	sym.Container = container.String
	if parent.Valid {
		sym.ParentSymbolID = &parent.Int64
	}
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

const symbolOrder = " ORDER BY f.uri, s.start_line, s.start_col, s.id"

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols(symbolSelect+" WHERE s.file_id = ?"+symbolOrder, fileID)
}

func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols(symbolSelect+" WHERE s.name = ?"+symbolOrder, name)
}

func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols(symbolSelect+" WHERE s.parent_symbol_id = ?"+symbolOrder, symbolID)
}

// SearchSymbols returns symbols whose name starts with prefix (case
// sensitive), paginated, along with the total match count.
func (s *Store) SearchSymbols(prefix string, page Pagination) ([]*Symbol, int, error) {
	page = page.normalize()

	var where []string
	var args []any
	if prefix != "" {
		// LIKE is case-insensitive for ASCII in SQLite; substr keeps the
		// match exact.
		where = append(where, "s.name LIKE ? ESCAPE '\\' AND substr(s.name, 1, ?) = ?")
		args = append(args, escapeLike(prefix)+"%", len(prefix), prefix)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM symbols s JOIN files f ON f.id = s.file_id" + whereSQL
	if err := s.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search symbols: count: %w", err)
	}

	pageArgs := append(append([]any{}, args...), page.Limit, page.Offset)
	syms, err := s.querySymbols(symbolSelect+whereSQL+symbolOrder+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("search symbols: %w", err)
	}
	return syms, total, nil
}

// --- Occurrence operations ---

func (s *Store) InsertOccurrence(occ *Occurrence) (int64, error) {
	id, err := insertOccurrenceTx(s.db, occ)
	if err != nil {
		return 0, fmt.Errorf("insert occurrence: %w", err)
	}
	occ.ID = id
	return id, nil
}

const occurrenceSelect = `SELECT o.id, o.file_id, f.uri, o.name,
	o.start_line, o.start_col, o.end_line, o.end_col, o.is_declaration
	FROM occurrences o JOIN files f ON f.id = o.file_id`

const occurrenceOrder = " ORDER BY f.uri, o.start_line, o.start_col, o.id"

func (s *Store) queryOccurrences(query string, args ...any) ([]*Occurrence, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Occurrence
	for rows.Next() {
		o := &Occurrence{}
		if err := rows.Scan(&o.ID, &o.FileID, &o.URI, &o.Name,
			&o.StartLine, &o.StartCol, &o.EndLine, &o.EndCol, &o.IsDeclaration); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) OccurrencesByName(name string) ([]*Occurrence, error) {
	return s.queryOccurrences(occurrenceSelect+" WHERE o.name = ?"+occurrenceOrder, name)
}

func (s *Store) OccurrencesByFile(fileID int64) ([]*Occurrence, error) {
	return s.queryOccurrences(occurrenceSelect+" WHERE o.file_id = ?"+occurrenceOrder, fileID)
}

// --- Diagnostic operations ---

func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, severity, message, start_line, start_col, end_line, end_col
		 FROM diagnostics WHERE file_id = ? ORDER BY start_line, start_col, id`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by file: %w", err)
	}
	defer rows.Close()
	var out []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		if err := rows.Scan(&d.ID, &d.FileID, &d.Severity, &d.Message,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

package shellsense

import (
	"context"
	"fmt"
	"time"

	"github.com/jward/shellsense/internal/store"
	"github.com/jward/shellsense/internal/syntax"
)

const scriptsHashKey = "scripts_hash"

// ExportStats summarizes one Export run.
type ExportStats struct {
	Written int // documents (re)written
	Skipped int // documents unchanged since the last export
	Deleted int // stored files no longer tracked
}

// Export writes every tracked document to s, one transaction per document.
// Documents whose content hash matches the stored row are skipped unless
// the extraction scripts changed since the last export. Stored files that
// are no longer tracked are deleted.
func (a *Analyzer) Export(ctx context.Context, s *store.Store) (ExportStats, error) {
	var stats ExportStats

	scriptsHash := a.ScriptsHash()
	stored, err := s.GetMetadata(scriptsHashKey)
	if err != nil {
		return stats, fmt.Errorf("shellsense: export: %w", err)
	}
	scriptsChanged := stored != scriptsHash

	now := time.Now()
	var errs []error
	for _, uri := range a.order {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("shellsense: export: %w", err)
		}
		doc := a.docs[uri]

		existing, err := s.FileByURI(uri)
		if err != nil {
			errs = append(errs, fmt.Errorf("export %s: %w", uri, err))
			continue
		}
		if existing != nil && existing.Hash == doc.hash && !scriptsChanged {
			stats.Skipped++
			continue
		}

		f := &store.File{
			URI:         uri,
			Path:        URIToPath(uri),
			Language:    syntax.Bash,
			Hash:        doc.hash,
			Version:     doc.version,
			LastIndexed: now,
		}
		if err := s.CommitBatch(f, doc.extracted, doc.diags); err != nil {
			errs = append(errs, fmt.Errorf("export %s: %w", uri, err))
			continue
		}
		stats.Written++
	}

	deleted, err := s.DeleteFilesExcept(a.order)
	if err != nil {
		errs = append(errs, fmt.Errorf("export: prune: %w", err))
	}
	stats.Deleted = deleted

	if len(errs) > 0 {
		return stats, fmt.Errorf("shellsense: export had %d error(s): %w", len(errs), errs[0])
	}
	if err := s.SetMetadata(scriptsHashKey, scriptsHash); err != nil {
		return stats, fmt.Errorf("shellsense: export: %w", err)
	}
	return stats, nil
}

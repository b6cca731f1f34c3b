// Package ingest walks a directory of ARGO NetCDF profile files and loads
// them into the canonical table. A file that cannot be parsed or reduced is
// logged and skipped; one bad download never aborts a batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/prathoseraaj/floatChat/internal/argo"
	"github.com/prathoseraaj/floatChat/internal/store"
)

// DefaultPattern matches the NetCDF profile files inside a data directory.
const DefaultPattern = "*.nc"

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// Writer persists normalised profiles. *store.ProfileStore satisfies it.
type Writer interface {
	EnsureTable(ctx context.Context, mode store.WriteMode) error
	InsertProfiles(ctx context.Context, recs []argo.ProfileRecord) (int64, error)
}

// readFile parses one NetCDF file into profile records. Swapped out in
// tests.
type readFile func(path string, n argo.Normalizer) ([]argo.ProfileRecord, error)

func readNetCDF(path string, n argo.Normalizer) ([]argo.ProfileRecord, error) {
	ds, err := argo.OpenDataset(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	return n.Normalize(ds)
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Summary reports the outcome of one ingestion run.
type Summary struct {
	FilesFound   int
	FilesLoaded  int
	FilesSkipped int
	RowsWritten  int64
	Elapsed      time.Duration
}

// Pipeline loads every matching file under a directory into the store.
type Pipeline struct {
	writer     Writer
	normalizer argo.Normalizer
	mode       store.WriteMode
	pattern    string
	read       readFile
}

// NewPipeline builds a pipeline. An empty pattern means DefaultPattern.
func NewPipeline(writer Writer, normalizer argo.Normalizer, mode store.WriteMode, pattern string) *Pipeline {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Pipeline{
		writer:     writer,
		normalizer: normalizer,
		mode:       mode,
		pattern:    pattern,
		read:       readNetCDF,
	}
}

// Run ingests every matching file in dir. The table is prepared once up
// front, so replace mode drops old data exactly once per run.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Summary, error) {
	started := time.Now()

	files, err := filepath.Glob(filepath.Join(dir, p.pattern))
	if err != nil {
		return nil, fmt.Errorf("ingest: glob %s: %w", p.pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("ingest: no files matching %s under %s", p.pattern, dir)
	}
	sort.Strings(files)

	if err := p.writer.EnsureTable(ctx, p.mode); err != nil {
		return nil, fmt.Errorf("ingest: prepare table: %w", err)
	}

	summary := &Summary{FilesFound: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("ingest: %w", err)
		}

		rows, err := p.loadFile(ctx, path)
		if err != nil {
			summary.FilesSkipped++
			slog.Warn("skipping file", "file", filepath.Base(path), "error", err)
			continue
		}
		summary.FilesLoaded++
		summary.RowsWritten += rows
	}

	summary.Elapsed = time.Since(started)
	slog.Info("ingestion finished",
		"files_found", summary.FilesFound,
		"files_loaded", summary.FilesLoaded,
		"files_skipped", summary.FilesSkipped,
		"rows_written", summary.RowsWritten,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

func (p *Pipeline) loadFile(ctx context.Context, path string) (int64, error) {
	recs, err := p.read(path, p.normalizer)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, fmt.Errorf("no complete profiles")
	}

	rows, err := p.writer.InsertProfiles(ctx, recs)
	if err != nil {
		return 0, err
	}
	slog.Debug("file loaded", "file", filepath.Base(path), "profiles", len(recs), "rows", rows)
	return rows, nil
}

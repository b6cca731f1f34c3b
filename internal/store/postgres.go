package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prathoseraaj/floatChat/internal/argo"
)

// ---------------------------------------------------------------------------
// Write modes
// ---------------------------------------------------------------------------

// WriteMode controls how a batch lands in the canonical table.
type WriteMode string

const (
	// ModeReplace drops and recreates the table, used for a full rebuild.
	ModeReplace WriteMode = "replace"
	// ModeAppend adds rows to the existing table.
	ModeAppend WriteMode = "append"
)

// ParseWriteMode maps a flag value to a WriteMode.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeReplace:
		return ModeReplace, nil
	case ModeAppend, "":
		return ModeAppend, nil
	}
	return "", fmt.Errorf("store: unknown write mode %q (want replace or append)", s)
}

// ---------------------------------------------------------------------------
// ProfileStore
// ---------------------------------------------------------------------------

// ProfileStore persists ProfileRecords and executes generated SQL against
// Postgres through a pooled connection.
type ProfileStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewProfileStore connects to Postgres and verifies the connection. An
// unreachable database is a startup error; callers treat it as fatal.
func NewProfileStore(ctx context.Context, dsn, table string) (*ProfileStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &ProfileStore{pool: pool, table: table}, nil
}

// Close releases the connection pool.
func (s *ProfileStore) Close() {
	s.pool.Close()
}

// Table returns the canonical table name.
func (s *ProfileStore) Table() string { return s.table }

// EnsureTable prepares the canonical table for the given mode. Replace mode
// drops any previous contents; both modes install the dedupe index.
func (s *ProfileStore) EnsureTable(ctx context.Context, mode WriteMode) error {
	if mode == ModeReplace {
		if _, err := s.pool.Exec(ctx, buildDropTableSQL(s.table)); err != nil {
			return fmt.Errorf("store: drop %s: %w", s.table, err)
		}
	}
	if _, err := s.pool.Exec(ctx, buildCreateTableSQL(s.table)); err != nil {
		return fmt.Errorf("store: create %s: %w", s.table, err)
	}
	if _, err := s.pool.Exec(ctx, buildDedupeIndexSQL(s.table)); err != nil {
		return fmt.Errorf("store: index %s: %w", s.table, err)
	}
	return nil
}

// InsertProfiles appends a batch of records, skipping rows whose
// (platform_id, cycle_number) already exists. It returns the number of rows
// actually written.
func (s *ProfileStore) InsertProfiles(ctx context.Context, recs []argo.ProfileRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	sql, args := buildInsertSQL(s.table, recs)
	cmd, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("store: insert %d rows: %w", len(recs), err)
	}
	inserted := cmd.RowsAffected()
	if skipped := int64(len(recs)) - inserted; skipped > 0 {
		slog.Debug("duplicate profiles skipped", "table", s.table, "skipped", skipped)
	}
	return inserted, nil
}

// Query executes generated SQL and materialises the result. Column kinds
// are inferred from the first non-NULL value seen per column.
func (s *ProfileStore) Query(ctx context.Context, sql string) (*ResultTable, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	table := &ResultTable{Columns: make([]Column, len(fields))}
	classified := make([]bool, len(fields))
	for i, f := range fields {
		table.Columns[i] = Column{Name: string(f.Name), Kind: KindText}
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		for i, v := range values {
			if classified[i] {
				continue
			}
			if kind, ok := classifyValue(v); ok {
				table.Columns[i].Kind = kind
				classified[i] = true
			}
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return table, nil
}

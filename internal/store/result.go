package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ---------------------------------------------------------------------------
// ResultTable
// ---------------------------------------------------------------------------

// ColumnKind classifies a result column for the sampler and chart selector.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
	KindTime
)

// Column is one named, classified result column.
type Column struct {
	Name string
	Kind ColumnKind
}

// ResultTable is the in-memory shape of a SQL query result. Rows hold the
// driver values; the typed accessors below normalise them.
type ResultTable struct {
	Columns []Column
	Rows    [][]any
}

// RowCount returns the number of rows.
func (t *ResultTable) RowCount() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t *ResultTable) Empty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the index of the named column (case-insensitive),
// or -1.
func (t *ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *ResultTable) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// NumericColumns returns the indexes of all numeric columns in order.
func (t *ResultTable) NumericColumns() []int {
	var out []int
	for i, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, i)
		}
	}
	return out
}

// TimeColumn returns the index of the first date/time column, or -1.
func (t *ResultTable) TimeColumn() int {
	for i, c := range t.Columns {
		if c.Kind == KindTime {
			return i
		}
	}
	return -1
}

// Float64 reads a cell as float64, converting the numeric types the pgx
// driver produces.
func (t *ResultTable) Float64(row, col int) (float64, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return 0, false
	}
	return toFloat64(t.Rows[row][col])
}

// Time reads a cell as time.Time.
func (t *ResultTable) Time(row, col int) (time.Time, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return time.Time{}, false
	}
	switch v := t.Rows[row][col].(type) {
	case time.Time:
		return v, true
	case pgtype.Timestamp:
		if v.Valid {
			return v.Time, true
		}
	case pgtype.Timestamptz:
		if v.Valid {
			return v.Time, true
		}
	}
	return time.Time{}, false
}

// ColumnValues returns the raw values of one column.
func (t *ResultTable) ColumnValues(col int) []any {
	out := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		if col < len(row) {
			out = append(out, row[col])
		} else {
			out = append(out, nil)
		}
	}
	return out
}

// Head returns a table with at most n rows, sharing the column metadata.
func (t *ResultTable) Head(n int) *ResultTable {
	if n >= len(t.Rows) {
		return t
	}
	return &ResultTable{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Render formats up to maxRows rows as a plain-text table for inclusion in
// a prompt.
func (t *ResultTable) Render(maxRows int) string {
	var b strings.Builder
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString("\t")
		}
		b.WriteString(c.Name)
	}
	b.WriteString("\n")

	limit := len(t.Rows)
	if maxRows > 0 && limit > maxRows {
		limit = maxRows
	}
	for _, row := range t.Rows[:limit] {
		for i, v := range row {
			if i > 0 {
				b.WriteString("\t")
			}
			b.WriteString(renderCell(v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case time.Time:
		return c.UTC().Format(time.RFC3339)
	case string:
		return c
	case float64:
		return fmt.Sprintf("%g", c)
	case float32:
		return fmt.Sprintf("%g", c)
	}
	if f, ok := toFloat64(v); ok {
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprintf("%v", v)
}

func toFloat64(v any) (float64, bool) {
	switch c := v.(type) {
	case float64:
		return c, true
	case float32:
		return float64(c), true
	case int64:
		return float64(c), true
	case int32:
		return float64(c), true
	case int16:
		return float64(c), true
	case int:
		return float64(c), true
	case pgtype.Numeric:
		f, err := c.Float64Value()
		if err == nil && f.Valid {
			return f.Float64, true
		}
	}
	return 0, false
}

// classifyValue infers a column kind from one non-nil driver value.
func classifyValue(v any) (ColumnKind, bool) {
	switch v.(type) {
	case nil:
		return KindText, false
	case time.Time, pgtype.Timestamp, pgtype.Timestamptz, pgtype.Date:
		return KindTime, true
	case float64, float32, int64, int32, int16, int, pgtype.Numeric:
		return KindNumeric, true
	default:
		return KindText, true
	}
}

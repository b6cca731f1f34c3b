package store

import (
	"fmt"
	"strings"

	"github.com/prathoseraaj/floatChat/internal/argo"
)

// ---------------------------------------------------------------------------
// SQL builders
// ---------------------------------------------------------------------------
//
// These are pure functions so the exact DDL and insert statements are unit
// testable without a database.

// profileColumns is the canonical column order of the argo_profiles table.
var profileColumns = []string{
	argo.FieldPlatform,
	argo.FieldCycle,
	argo.FieldLatitude,
	argo.FieldLongitude,
	argo.FieldTimestamp,
	argo.FieldPressure,
	argo.FieldTemperature,
	argo.FieldSalinity,
}

// profileColumnTypes is the explicit column-type mapping of the canonical
// table.
var profileColumnTypes = map[string]string{
	argo.FieldPlatform:    "text",
	argo.FieldCycle:       "integer",
	argo.FieldLatitude:    "double precision",
	argo.FieldLongitude:   "double precision",
	argo.FieldTimestamp:   "timestamptz",
	argo.FieldPressure:    "double precision",
	argo.FieldTemperature: "double precision",
	argo.FieldSalinity:    "double precision",
}

// buildCreateTableSQL builds the canonical table DDL.
func buildCreateTableSQL(table string) string {
	cols := make([]string, len(profileColumns))
	for i, c := range profileColumns {
		cols[i] = fmt.Sprintf("%s %s", pgIdent(c), profileColumnTypes[c])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", pgIdent(table), strings.Join(cols, ", "))
}

// buildDedupeIndexSQL builds the unique index that makes re-ingesting a file
// idempotent: one row per (platform_id, cycle_number).
func buildDedupeIndexSQL(table string) string {
	return fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s, %s);",
		pgIdent(table+"_platform_cycle_key"),
		pgIdent(table),
		pgIdent(argo.FieldPlatform),
		pgIdent(argo.FieldCycle),
	)
}

// buildDropTableSQL builds the DROP used by replace mode.
func buildDropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", pgIdent(table))
}

// buildInsertSQL builds one multi-row INSERT with ON CONFLICT DO NOTHING on
// the dedupe key, plus its positional args. Missing latitude/longitude
// become NULL.
func buildInsertSQL(table string, recs []argo.ProfileRecord) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range profileColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(recs)*len(profileColumns))
	p := 1
	for i, rec := range recs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range profileColumns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
		}
		b.WriteString(")")
		args = append(args,
			rec.PlatformID,
			rec.CycleNumber,
			nullableFloat(rec.Latitude),
			nullableFloat(rec.Longitude),
			rec.Timestamp,
			nullableFloat(rec.Pressure),
			nullableFloat(rec.Temperature),
			nullableFloat(rec.Salinity),
		)
	}

	fmt.Fprintf(&b, " ON CONFLICT (%s, %s) DO NOTHING;",
		pgIdent(argo.FieldPlatform), pgIdent(argo.FieldCycle))
	return b.String(), args
}

func nullableFloat(f float64) any {
	if argo.IsMissing(f) {
		return nil
	}
	return f
}

// pgIdent quotes an identifier for Postgres.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

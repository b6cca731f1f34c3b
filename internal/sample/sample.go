// Package sample thins large query results before charting. Insight
// generation always sees the full result; only the chart payload is
// reduced.
package sample

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/prathoseraaj/floatChat/internal/store"
)

// DefaultTarget is the row count a sampled result aims for.
const DefaultTarget = 1000

// Strategy names the reduction applied to a result.
type Strategy string

const (
	StrategyNone   Strategy = "none"
	StrategyGeo    Strategy = "geo-stride"
	StrategyTime   Strategy = "time-stride"
	StrategyRandom Strategy = "random"
)

// timeKeywords mark a question as already time-scoped; such questions skip
// sampling so the user sees the full requested range.
var timeKeywords = []string{
	"year", "month", "date", "time",
	"recent", "latest", "last",
	"since", "before", "after", "between",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ---------------------------------------------------------------------------
// Sampler
// ---------------------------------------------------------------------------

// Sampler reduces oversized results to roughly Target rows.
type Sampler struct {
	Target int
}

// NewSampler returns a sampler with the default target.
func NewSampler() Sampler {
	return Sampler{Target: DefaultTarget}
}

// BypassesSampling reports whether the question names a time scope, in
// which case the result is returned whole regardless of size.
func (s Sampler) BypassesSampling(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range timeKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return yearPattern.MatchString(q)
}

// Sample returns a thinned copy of the table and the strategy used. Tables
// at or under the target, and questions with an explicit time scope, pass
// through untouched.
func (s Sampler) Sample(table *store.ResultTable, question string) (*store.ResultTable, Strategy) {
	target := s.Target
	if target <= 0 {
		target = DefaultTarget
	}
	if table == nil || table.RowCount() <= target {
		return table, StrategyNone
	}
	if s.BypassesSampling(question) {
		return table, StrategyNone
	}

	if table.HasColumn("latitude") && table.HasColumn("longitude") {
		return geoStrideRows(table, target), StrategyGeo
	}
	if table.TimeColumn() >= 0 {
		return timeStrideRows(table, target), StrategyTime
	}
	return randomRows(table, target), StrategyRandom
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

// geoStrideRows sorts by (latitude, longitude), then strides, so the
// sample keeps its spatial spread instead of whatever order the query
// returned.
func geoStrideRows(table *store.ResultTable, target int) *store.ResultTable {
	latIdx := table.ColumnIndex("latitude")
	lonIdx := table.ColumnIndex("longitude")

	sorted := &store.ResultTable{
		Columns: table.Columns,
		Rows:    append([][]any(nil), table.Rows...),
	}
	sort.SliceStable(sorted.Rows, func(i, j int) bool {
		li, _ := sorted.Float64(i, latIdx)
		lj, _ := sorted.Float64(j, latIdx)
		if li != lj {
			return li < lj
		}
		gi, _ := sorted.Float64(i, lonIdx)
		gj, _ := sorted.Float64(j, lonIdx)
		return gi < gj
	})
	return strideRows(sorted, target)
}

// strideRows keeps every n-th row of the given order. The result holds
// between target and target+stride rows.
func strideRows(table *store.ResultTable, target int) *store.ResultTable {
	stride := table.RowCount() / target
	if stride < 1 {
		stride = 1
	}
	out := &store.ResultTable{Columns: table.Columns}
	for i := 0; i < table.RowCount(); i += stride {
		out.Rows = append(out.Rows, table.Rows[i])
	}
	return out
}

// timeStrideRows sorts by the time column, then strides, so the sample
// spans the whole observed period evenly.
func timeStrideRows(table *store.ResultTable, target int) *store.ResultTable {
	idx := table.TimeColumn()

	sorted := &store.ResultTable{
		Columns: table.Columns,
		Rows:    append([][]any(nil), table.Rows...),
	}
	sort.SliceStable(sorted.Rows, func(i, j int) bool {
		ti, iok := sorted.Time(i, idx)
		tj, jok := sorted.Time(j, idx)
		if !iok || !jok {
			return iok && !jok
		}
		return ti.Before(tj)
	})
	return strideRows(sorted, target)
}

// randomRows draws target rows without replacement using a fixed seed, so
// repeated identical queries chart the same points.
func randomRows(table *store.ResultTable, target int) *store.ResultTable {
	rng := rand.New(rand.NewSource(42))
	picked := rng.Perm(table.RowCount())[:target]
	sort.Ints(picked)

	out := &store.ResultTable{
		Columns: table.Columns,
		Rows:    make([][]any, 0, target),
	}
	for _, i := range picked {
		out.Rows = append(out.Rows, table.Rows[i])
	}
	return out
}

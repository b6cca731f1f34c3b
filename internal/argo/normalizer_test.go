package argo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a synthetic profile file.
type fakeSource struct {
	vars  map[string]*Variable
	attrs map[string]string
}

func (f *fakeSource) HasVariable(name string) bool {
	_, ok := f.vars[name]
	return ok
}

func (f *fakeSource) Variable(name string) (*Variable, error) {
	return f.vars[name], nil
}

func (f *fakeSource) Attribute(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

// completeSource builds a source with every canonical variable present and
// one valid profile. juld is the day offset of the single profile.
func completeSource(juld float64) *fakeSource {
	return &fakeSource{
		vars: map[string]*Variable{
			"PLATFORM_NUMBER": {Values: []string{"6901867  "}},
			"CYCLE_NUMBER":    {Values: []int32{42}},
			"LATITUDE":        {Values: []float64{-12.5}},
			"LONGITUDE":       {Values: []float64{45.25}},
			"JULD":            {Values: []float64{juld}},
			"PRES_ADJUSTED":   {Values: [][]float32{{5.1, 10.3, 20.6}}},
			"TEMP_ADJUSTED":   {Values: [][]float32{{28.0, 27.0, 26.0}}},
			"PSAL_ADJUSTED":   {Values: [][]float32{{35.1, 35.2, 35.3}}},
		},
		attrs: map[string]string{},
	}
}

func TestNormalizeTimestampEpochZero(t *testing.T) {
	n := &Normalizer{YearFilter: 1950}
	recs, err := n.Normalize(completeSource(0))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), recs[0].Timestamp)
}

func TestNormalizeTimestampDayOffset(t *testing.T) {
	n := &Normalizer{YearFilter: 1950}
	recs, err := n.Normalize(completeSource(27000))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	ts := recs[0].Timestamp
	assert.Equal(t, 2023, ts.Year())
	assert.Equal(t, time.December, ts.Month())
	assert.Equal(t, 4, ts.Day())
}

func TestNormalizeReferenceDateOverride(t *testing.T) {
	src := completeSource(1)
	src.attrs["REFERENCE_DATE_TIME"] = "20000101000000"

	n := &Normalizer{YearFilter: 1950}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), recs[0].Timestamp)
}

func TestNormalizeDecodesPlatformText(t *testing.T) {
	src := completeSource(28000)
	src.vars["PLATFORM_NUMBER"] = &Variable{Values: [][]byte{[]byte("6901867 \x00")}}

	n := &Normalizer{YearFilter: 1950}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "6901867", recs[0].PlatformID)
}

func TestDecodeTextIdempotent(t *testing.T) {
	once := DecodeText("6901867  \x00")
	twice := DecodeText(once)
	assert.Equal(t, "6901867", once)
	assert.Equal(t, once, twice)
}

func TestNormalizePrefersAdjustedVariables(t *testing.T) {
	src := completeSource(28000)
	src.vars["PRES"] = &Variable{Values: [][]float32{{999.0}}}

	n := &Normalizer{YearFilter: 1950, Reduction: FirstLevel}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 5.1, recs[0].Pressure, 0.001)
}

func TestNormalizeFallsBackWhenAdjustedEmpty(t *testing.T) {
	src := completeSource(28000)
	nan := math.NaN()
	src.vars["PRES_ADJUSTED"] = &Variable{Values: [][]float64{{nan, nan, nan}}}
	src.vars["PRES"] = &Variable{Values: [][]float64{{7.5, 12.5}}}

	n := &Normalizer{YearFilter: 1950, Reduction: FirstLevel}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 7.5, recs[0].Pressure, 0.001)
}

func TestNormalizeFillValueTreatedAsMissing(t *testing.T) {
	src := completeSource(28000)
	src.vars["TEMP_ADJUSTED"] = &Variable{
		Values:  [][]float32{{99999.0, 20.0, 22.0}},
		Fill:    99999.0,
		HasFill: true,
	}

	n := &Normalizer{YearFilter: 1950, Reduction: MeanNonMissing}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 21.0, recs[0].Temperature, 0.001)
}

func TestNormalizeReductionPolicies(t *testing.T) {
	src := completeSource(28000)

	first := &Normalizer{YearFilter: 1950, Reduction: FirstLevel}
	recs, err := first.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 28.0, recs[0].Temperature, 0.001)

	mean := &Normalizer{YearFilter: 1950, Reduction: MeanNonMissing}
	recs, err = mean.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 27.0, recs[0].Temperature, 0.001)
}

func TestNormalizeInsufficientFields(t *testing.T) {
	src := &fakeSource{
		vars: map[string]*Variable{
			"LATITUDE":  {Values: []float64{1}},
			"LONGITUDE": {Values: []float64{2}},
			"JULD":      {Values: []float64{27000}},
		},
		attrs: map[string]string{},
	}

	n := &Normalizer{}
	_, err := n.Normalize(src)
	assert.ErrorIs(t, err, ErrInsufficientFields)
}

func TestNormalizeDropsIncompleteProfiles(t *testing.T) {
	nan := math.NaN()
	src := &fakeSource{
		vars: map[string]*Variable{
			"PLATFORM_NUMBER": {Values: []string{"A", "B", "C"}},
			"CYCLE_NUMBER":    {Values: []int32{1, 2, 3}},
			"LATITUDE":        {Values: []float64{1, 2, 3}},
			"LONGITUDE":       {Values: []float64{1, 2, 3}},
			// Profile 1 predates the year filter, profile 2 has no salinity.
			"JULD":          {Values: []float64{27800, 100, 27800}},
			"PRES_ADJUSTED": {Values: []float64{10, 10, 10}},
			"TEMP_ADJUSTED": {Values: []float64{20, 20, 20}},
			"PSAL_ADJUSTED": {Values: []float64{35, 35, nan}},
		},
		attrs: map[string]string{},
	}

	n := &Normalizer{YearFilter: 2024}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].PlatformID)
	assert.Equal(t, 1, recs[0].CycleNumber)
}

func TestNormalizeUnparsableTimestampDropped(t *testing.T) {
	src := completeSource(0)
	src.vars["JULD"] = &Variable{Values: []string{"not-a-date"}}

	n := &Normalizer{YearFilter: 1950}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestNormalizeTextualTimestamp(t *testing.T) {
	src := completeSource(0)
	src.vars["JULD"] = &Variable{Values: []string{"2024-03-15 06:30:00"}}

	n := &Normalizer{YearFilter: 2024}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, time.Date(2024, 3, 15, 6, 30, 0, 0, time.UTC), recs[0].Timestamp)
}

func TestNormalizeJULDFillOutOfRange(t *testing.T) {
	src := completeSource(999999)

	n := &Normalizer{YearFilter: 1950}
	recs, err := n.Normalize(src)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseReductionPolicy(t *testing.T) {
	p, err := ParseReductionPolicy("first")
	require.NoError(t, err)
	assert.Equal(t, FirstLevel, p)

	p, err = ParseReductionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MeanNonMissing, p)

	_, err = ParseReductionPolicy("median")
	assert.Error(t, err)
}

package argo

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Reduction policy
// ---------------------------------------------------------------------------

// ReductionPolicy decides how a per-level measurement array collapses into
// the single scalar stored per profile. It is chosen once per ingestion run
// and applied uniformly to every physical quantity.
type ReductionPolicy int

const (
	// MeanNonMissing averages every non-missing depth-level value.
	MeanNonMissing ReductionPolicy = iota
	// FirstLevel takes the shallowest (surface) depth level as-is.
	FirstLevel
)

// ParseReductionPolicy maps a flag value to a policy.
func ParseReductionPolicy(s string) (ReductionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean":
		return MeanNonMissing, nil
	case "first":
		return FirstLevel, nil
	}
	return 0, fmt.Errorf("argo: unknown reduction policy %q (want mean or first)", s)
}

func (p ReductionPolicy) String() string {
	if p == FirstLevel {
		return "first"
	}
	return "mean"
}

// ---------------------------------------------------------------------------
// Canonical fields
// ---------------------------------------------------------------------------

// Canonical output field names. These double as the argo_profiles column
// names.
const (
	FieldPlatform    = "platform_id"
	FieldCycle       = "cycle_number"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
	FieldTimestamp   = "timestamp"
	FieldPressure    = "pressure"
	FieldTemperature = "temperature"
	FieldSalinity    = "salinity"
)

// fieldCandidates lists, per canonical field, the source variable names to
// try in priority order. Bias-adjusted variables win over raw ones.
var fieldCandidates = []struct {
	field   string
	sources []string
}{
	{FieldPlatform, []string{"PLATFORM_NUMBER"}},
	{FieldCycle, []string{"CYCLE_NUMBER"}},
	{FieldLatitude, []string{"LATITUDE"}},
	{FieldLongitude, []string{"LONGITUDE"}},
	{FieldTimestamp, []string{"JULD"}},
	{FieldPressure, []string{"PRES_ADJUSTED", "PRES"}},
	{FieldTemperature, []string{"TEMP_ADJUSTED", "TEMP"}},
	{FieldSalinity, []string{"PSAL_ADJUSTED", "PSAL"}},
}

const (
	// MinResolvedFields is the minimum number of canonical fields a file
	// must resolve before any of its profiles are considered.
	MinResolvedFields = 5

	// DefaultYearFilter drops profiles observed before this year.
	DefaultYearFilter = 2024

	// maxJULDDays bounds plausible day offsets; the ARGO fill value
	// (999999) and other garbage land far outside it.
	maxJULDDays = 100000
)

// defaultOrigin is the JULD reference epoch when the file does not declare
// REFERENCE_DATE_TIME.
var defaultOrigin = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrInsufficientFields is returned when a file resolves too few canonical
// fields to be worth normalizing. The caller logs it and skips the file.
var ErrInsufficientFields = errors.New("argo: too few canonical fields resolved")

// ---------------------------------------------------------------------------
// Normalizer
// ---------------------------------------------------------------------------

// Normalizer turns a parsed ARGO profile file into canonical ProfileRecords:
// one record per profile, per-level arrays reduced to a scalar by the
// configured policy, records failing the persistence invariant dropped.
type Normalizer struct {
	// YearFilter is the minimum accepted timestamp year. Zero means
	// DefaultYearFilter.
	YearFilter int

	// Reduction selects the per-level collapse strategy.
	Reduction ReductionPolicy
}

func (n *Normalizer) minYear() int {
	if n.YearFilter <= 0 {
		return DefaultYearFilter
	}
	return n.YearFilter
}

// Normalize extracts every complete ProfileRecord from src. It returns
// ErrInsufficientFields when fewer than MinResolvedFields canonical fields
// resolve; individual incomplete profiles are dropped silently.
func (n *Normalizer) Normalize(src Source) ([]ProfileRecord, error) {
	vars := n.resolve(src)
	if len(vars) < MinResolvedFields {
		return nil, fmt.Errorf("%w: resolved %d of %d", ErrInsufficientFields, len(vars), len(fieldCandidates))
	}

	origin := timeOrigin(src)
	count := profileCount(vars)

	var recs []ProfileRecord
	for i := 0; i < count; i++ {
		rec := ProfileRecord{
			Latitude:    Missing(),
			Longitude:   Missing(),
			Pressure:    Missing(),
			Temperature: Missing(),
			Salinity:    Missing(),
		}
		if v, ok := vars[FieldPlatform]; ok {
			if s, ok := stringAt(v, i); ok {
				rec.PlatformID = s
			}
		}
		if v, ok := vars[FieldCycle]; ok {
			if f, ok := n.numericAt(v, i); ok {
				rec.CycleNumber = int(f)
			}
		}
		if v, ok := vars[FieldLatitude]; ok {
			if f, ok := n.numericAt(v, i); ok {
				rec.Latitude = f
			}
		}
		if v, ok := vars[FieldLongitude]; ok {
			if f, ok := n.numericAt(v, i); ok {
				rec.Longitude = f
			}
		}
		if v, ok := vars[FieldTimestamp]; ok {
			if ts, ok := timestampAt(v, i, origin); ok {
				rec.Timestamp = ts
			}
		}
		if v, ok := vars[FieldPressure]; ok {
			if f, ok := n.numericAt(v, i); ok {
				rec.Pressure = f
			}
		}
		if v, ok := vars[FieldTemperature]; ok {
			if f, ok := n.numericAt(v, i); ok {
				rec.Temperature = f
			}
		}
		if v, ok := vars[FieldSalinity]; ok {
			if f, ok := n.numericAt(v, i); ok {
				rec.Salinity = f
			}
		}

		if !rec.Complete(n.minYear()) {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// resolve picks, for each canonical field, the first candidate variable that
// exists and is not entirely missing.
func (n *Normalizer) resolve(src Source) map[string]*Variable {
	out := make(map[string]*Variable, len(fieldCandidates))
	for _, fc := range fieldCandidates {
		for _, name := range fc.sources {
			if !src.HasVariable(name) {
				continue
			}
			v, err := src.Variable(name)
			if err != nil || v == nil {
				continue
			}
			if entirelyMissing(v) {
				continue
			}
			out[fc.field] = v
			break
		}
	}
	return out
}

// timeOrigin resolves the JULD reference epoch for the file.
func timeOrigin(src Source) time.Time {
	ref, ok := src.Attribute("REFERENCE_DATE_TIME")
	if !ok {
		return defaultOrigin
	}
	t, err := time.ParseInLocation("20060102150405", strings.TrimSpace(ref), time.UTC)
	if err != nil {
		return defaultOrigin
	}
	return t
}

// profileCount is the largest first-dimension length among resolved
// variables. Accessors bounds-check per profile, so a short variable simply
// yields missing values.
func profileCount(vars map[string]*Variable) int {
	max := 0
	for _, v := range vars {
		rv := reflect.ValueOf(v.Values)
		if rv.Kind() == reflect.Slice && rv.Len() > max {
			max = rv.Len()
		}
	}
	return max
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

// DecodeText decodes byte-encoded ARGO text and strips padding. It is
// idempotent: decoding an already-decoded string yields the same result.
func DecodeText(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// stringAt returns the decoded text value for profile i.
func stringAt(v *Variable, i int) (string, bool) {
	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice || i < 0 || i >= rv.Len() {
		return "", false
	}
	e := rv.Index(i)
	switch {
	case e.Kind() == reflect.String:
		return DecodeText(e.String()), true
	case e.Kind() == reflect.Slice && e.Type().Elem().Kind() == reflect.Uint8:
		return DecodeText(string(e.Bytes())), true
	}
	// Some DACs write identifiers numerically.
	if f, ok := elemFloat(e); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// numericAt returns the scalar value for profile i, reducing per-level
// arrays with the configured policy.
func (n *Normalizer) numericAt(v *Variable, i int) (float64, bool) {
	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice || i < 0 || i >= rv.Len() {
		return 0, false
	}
	e := rv.Index(i)
	if e.Kind() == reflect.Slice {
		return reduceLevels(e, v, n.Reduction)
	}
	f, ok := elemFloat(e)
	if !ok || missingValue(f, v) {
		return 0, false
	}
	return f, true
}

// reduceLevels collapses one profile's depth-level array to a scalar.
func reduceLevels(levels reflect.Value, v *Variable, policy ReductionPolicy) (float64, bool) {
	if levels.Len() == 0 {
		return 0, false
	}
	if policy == FirstLevel {
		f, ok := elemFloat(levels.Index(0))
		if !ok || missingValue(f, v) {
			return 0, false
		}
		return f, true
	}
	sum, cnt := 0.0, 0
	for j := 0; j < levels.Len(); j++ {
		f, ok := elemFloat(levels.Index(j))
		if !ok || missingValue(f, v) {
			continue
		}
		sum += f
		cnt++
	}
	if cnt == 0 {
		return 0, false
	}
	return sum / float64(cnt), true
}

// timestampAt derives the profile timestamp: numeric JULD values are day
// offsets from origin, textual values are parsed directly.
func timestampAt(v *Variable, i int, origin time.Time) (time.Time, bool) {
	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice || i < 0 || i >= rv.Len() {
		return time.Time{}, false
	}
	e := rv.Index(i)
	if e.Kind() == reflect.String {
		return parseTextTime(DecodeText(e.String()))
	}
	f, ok := elemFloat(e)
	if !ok || missingValue(f, v) {
		return time.Time{}, false
	}
	if f < 0 || f >= maxJULDDays {
		return time.Time{}, false
	}
	return origin.Add(time.Duration(f * float64(24*time.Hour))), true
}

func parseTextTime(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
		"20060102150405",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func elemFloat(e reflect.Value) (float64, bool) {
	switch e.Kind() {
	case reflect.Float32, reflect.Float64:
		return e.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(e.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(e.Uint()), true
	}
	return 0, false
}

func missingValue(f float64, v *Variable) bool {
	if math.IsNaN(f) {
		return true
	}
	return v.HasFill && f == v.Fill
}

// entirelyMissing reports whether a variable carries no usable value at all:
// every numeric element is NaN or the fill value, or every text element is
// empty after decoding.
func entirelyMissing(v *Variable) bool {
	rv := reflect.ValueOf(v.Values)
	if rv.Kind() != reflect.Slice {
		return true
	}
	return allMissing(rv, v)
}

func allMissing(rv reflect.Value, v *Variable) bool {
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		switch {
		case e.Kind() == reflect.String:
			if DecodeText(e.String()) != "" {
				return false
			}
		case e.Kind() == reflect.Slice && e.Type().Elem().Kind() == reflect.Uint8:
			if DecodeText(string(e.Bytes())) != "" {
				return false
			}
		case e.Kind() == reflect.Slice:
			if !allMissing(e, v) {
				return false
			}
		default:
			if f, ok := elemFloat(e); ok && !missingValue(f, v) {
				return false
			}
		}
	}
	return true
}

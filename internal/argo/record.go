package argo

import (
	"math"
	"time"
)

// ---------------------------------------------------------------------------
// ProfileRecord
// ---------------------------------------------------------------------------

// ProfileRecord is one row of the canonical argo_profiles table: a single
// float profile reduced to one scalar per physical quantity.
//
// Missing float values are represented as NaN; a missing timestamp is the
// zero time.Time.
type ProfileRecord struct {
	PlatformID  string    `json:"platform_id"`
	CycleNumber int       `json:"cycle_number"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	Pressure    float64   `json:"pressure"`
	Temperature float64   `json:"temperature"`
	Salinity    float64   `json:"salinity"`
}

// Missing is the sentinel for an unresolved float field.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a float field carries no value.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Complete reports whether the record satisfies the persistence invariant:
// timestamp, pressure, temperature and salinity are all present and the
// timestamp year is at or after minYear.
func (r ProfileRecord) Complete(minYear int) bool {
	if r.Timestamp.IsZero() || r.Timestamp.Year() < minYear {
		return false
	}
	return !IsMissing(r.Pressure) && !IsMissing(r.Temperature) && !IsMissing(r.Salinity)
}

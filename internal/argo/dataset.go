package argo

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// ---------------------------------------------------------------------------
// Source
// ---------------------------------------------------------------------------

// Source exposes the variables and global attributes of one parsed ARGO
// profile file. The normalizer works against this interface so tests can
// feed it synthetic datasets without real NetCDF files.
type Source interface {
	// HasVariable reports whether the named variable exists in the file.
	HasVariable(name string) bool

	// Variable reads the named variable's values and fill metadata.
	Variable(name string) (*Variable, error)

	// Attribute returns a global attribute as a decoded, trimmed string.
	Attribute(name string) (string, bool)
}

// Variable is one named variable pulled out of a NetCDF group. Values holds
// the concrete slice the reader produced: []string for character data,
// []T or [][]T for numeric data (one entry per profile, or per
// profile × depth level).
type Variable struct {
	Values  any
	Fill    float64
	HasFill bool
}

// ---------------------------------------------------------------------------
// Dataset — go-native-netcdf adapter
// ---------------------------------------------------------------------------

// Dataset adapts a go-native-netcdf group to the Source interface.
type Dataset struct {
	nc   api.Group
	vars map[string]bool
}

// OpenDataset opens a NetCDF file for reading.
func OpenDataset(path string) (*Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("argo: open %s: %w", path, err)
	}
	vars := make(map[string]bool)
	for _, name := range nc.ListVariables() {
		vars[name] = true
	}
	return &Dataset{nc: nc, vars: vars}, nil
}

// Close releases the underlying file handle.
func (d *Dataset) Close() {
	d.nc.Close()
}

// HasVariable implements Source.
func (d *Dataset) HasVariable(name string) bool {
	return d.vars[name]
}

// Variable implements Source.
func (d *Dataset) Variable(name string) (*Variable, error) {
	vg, err := d.nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("argo: variable %s: %w", name, err)
	}
	values, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("argo: read %s: %w", name, err)
	}
	v := &Variable{Values: values}
	if raw, has := vg.Attributes().Get("_FillValue"); has {
		if f, ok := attrFloat(raw); ok {
			v.Fill = f
			v.HasFill = true
		}
	}
	return v, nil
}

// Attribute implements Source. ARGO global attributes (REFERENCE_DATE_TIME
// in particular) are character data; they come back as strings or byte
// slices depending on the writer.
func (d *Dataset) Attribute(name string) (string, bool) {
	raw, has := d.nc.Attributes().Get(name)
	if !has {
		return "", false
	}
	s, ok := attrString(raw)
	if !ok {
		return "", false
	}
	return strings.TrimRight(s, " \x00"), true
}

// ---------------------------------------------------------------------------
// Attribute coercion
// ---------------------------------------------------------------------------

func attrString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []string:
		if len(v) > 0 {
			return v[0], true
		}
	case []byte:
		return string(v), true
	}
	return "", false
}

func attrFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	}
	return 0, false
}

// Package chart picks a plot shape for a query result and renders it as a
// Plotly figure. Selection is rule based and runs entirely locally; the
// model is never asked to choose a visualization.
package chart

import (
	"fmt"

	"github.com/prathoseraaj/floatChat/internal/store"
)

// Kind names the plot shape chosen for a result.
type Kind string

const (
	KindGeoMap       Kind = "geomap"
	KindTimeSeries   Kind = "timeseries"
	KindDepthProfile Kind = "depth_profile"
	KindScatter      Kind = "scatter"
)

// lineOnlyThreshold is the row count above which per-point markers become
// unreadable, so the figure drops to a plain line.
const lineOnlyThreshold = 500

// Chart is a selected figure, ready to serialise via ToPlotly.
type Chart struct {
	Kind   Kind
	Title  string
	XLabel string
	YLabel string

	X []any
	Y []any

	// Lat/Lon are set for geographic maps instead of X/Y.
	Lat  []any
	Lon  []any
	Text []string

	rows int
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select chooses the figure for a result table, or nil when the result is
// too small or has no plottable column pair. Rule order: map, time series,
// depth profile, generic scatter.
func Select(table *store.ResultTable) *Chart {
	if table == nil || table.RowCount() < 2 {
		return nil
	}

	latIdx := table.ColumnIndex("latitude")
	lonIdx := table.ColumnIndex("longitude")
	if latIdx >= 0 && lonIdx >= 0 {
		return geoMap(table, latIdx, lonIdx)
	}

	numeric := table.NumericColumns()

	if timeIdx := table.TimeColumn(); timeIdx >= 0 && len(numeric) > 0 {
		return timeSeries(table, timeIdx, numeric[0])
	}

	if presIdx := table.ColumnIndex("pressure"); presIdx >= 0 {
		// Aggregated results name the column daily_average_temperature.
		tempIdx := table.ColumnIndex("temperature")
		if tempIdx < 0 {
			tempIdx = table.ColumnIndex("daily_average_temperature")
		}
		if tempIdx >= 0 {
			return depthProfile(table, tempIdx, presIdx)
		}
	}

	if len(numeric) >= 2 {
		return scatter(table, numeric[0], numeric[1])
	}
	return nil
}

func geoMap(table *store.ResultTable, latIdx, lonIdx int) *Chart {
	c := &Chart{
		Kind:  KindGeoMap,
		Title: "Float Locations",
		Lat:   table.ColumnValues(latIdx),
		Lon:   table.ColumnValues(lonIdx),
		rows:  table.RowCount(),
	}
	if pidIdx := table.ColumnIndex("platform_id"); pidIdx >= 0 {
		for _, v := range table.ColumnValues(pidIdx) {
			c.Text = append(c.Text, fmt.Sprintf("%v", v))
		}
	}
	return c
}

func timeSeries(table *store.ResultTable, timeIdx, valIdx int) *Chart {
	name := table.Columns[valIdx].Name
	return &Chart{
		Kind:   KindTimeSeries,
		Title:  fmt.Sprintf("%s over Time", name),
		XLabel: table.Columns[timeIdx].Name,
		YLabel: name,
		X:      table.ColumnValues(timeIdx),
		Y:      table.ColumnValues(valIdx),
		rows:   table.RowCount(),
	}
}

func depthProfile(table *store.ResultTable, tempIdx, presIdx int) *Chart {
	return &Chart{
		Kind:   KindDepthProfile,
		Title:  "Temperature vs. Depth",
		XLabel: table.Columns[tempIdx].Name,
		YLabel: table.Columns[presIdx].Name,
		X:      table.ColumnValues(tempIdx),
		Y:      table.ColumnValues(presIdx),
		rows:   table.RowCount(),
	}
}

func scatter(table *store.ResultTable, xIdx, yIdx int) *Chart {
	return &Chart{
		Kind:   KindScatter,
		Title:  fmt.Sprintf("%s vs. %s", table.Columns[xIdx].Name, table.Columns[yIdx].Name),
		XLabel: table.Columns[xIdx].Name,
		YLabel: table.Columns[yIdx].Name,
		X:      table.ColumnValues(xIdx),
		Y:      table.ColumnValues(yIdx),
		rows:   table.RowCount(),
	}
}

// ---------------------------------------------------------------------------
// Plotly serialisation
// ---------------------------------------------------------------------------

// ToPlotly renders the figure as a Plotly JSON document with "data" and
// "layout" keys.
func (c *Chart) ToPlotly() map[string]any {
	if c == nil {
		return nil
	}

	layout := map[string]any{"title": c.Title}

	var trace map[string]any
	switch c.Kind {
	case KindGeoMap:
		trace = map[string]any{
			"type":   "scattergeo",
			"lat":    c.Lat,
			"lon":    c.Lon,
			"mode":   "markers",
			"marker": map[string]any{"size": c.markerSize()},
		}
		if len(c.Text) > 0 {
			trace["text"] = c.Text
		}
		layout["geo"] = map[string]any{"showland": true}
	default:
		trace = map[string]any{
			"type":   "scatter",
			"x":      c.X,
			"y":      c.Y,
			"mode":   c.mode(),
			"marker": map[string]any{"size": c.markerSize()},
		}
		layout["xaxis"] = map[string]any{"title": c.XLabel}
		yaxis := map[string]any{"title": c.YLabel}
		if c.Kind == KindDepthProfile {
			// Pressure grows with depth; flip the axis so the surface
			// sits at the top of the figure.
			yaxis["autorange"] = "reversed"
		}
		layout["yaxis"] = yaxis
	}

	return map[string]any{
		"data":   []map[string]any{trace},
		"layout": layout,
	}
}

func (c *Chart) mode() string {
	if c.rows > lineOnlyThreshold {
		return "lines"
	}
	return "lines+markers"
}

func (c *Chart) markerSize() int {
	switch {
	case c.rows > lineOnlyThreshold:
		return 3
	case c.rows > 100:
		return 4
	default:
		return 6
	}
}

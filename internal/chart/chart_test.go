package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathoseraaj/floatChat/internal/store"
)

func table(cols []store.Column, rows ...[]any) *store.ResultTable {
	return &store.ResultTable{Columns: cols, Rows: rows}
}

func TestSelectTooFewRows(t *testing.T) {
	assert.Nil(t, Select(nil))
	assert.Nil(t, Select(table(
		[]store.Column{{Name: "temperature", Kind: store.KindNumeric}},
		[]any{21.5},
	)))
}

func TestSelectNoPlottablePair(t *testing.T) {
	tbl := table(
		[]store.Column{{Name: "platform_id", Kind: store.KindText}},
		[]any{"6901867"}, []any{"6901868"},
	)
	assert.Nil(t, Select(tbl))
}

func TestSelectGeoMapWins(t *testing.T) {
	tbl := table(
		[]store.Column{
			{Name: "platform_id", Kind: store.KindText},
			{Name: "latitude", Kind: store.KindNumeric},
			{Name: "longitude", Kind: store.KindNumeric},
			{Name: "timestamp", Kind: store.KindTime},
		},
		[]any{"6901867", 10.5, -40.0, time.Now()},
		[]any{"6901868", 11.0, -41.0, time.Now()},
	)
	c := Select(tbl)
	require.NotNil(t, c)
	assert.Equal(t, KindGeoMap, c.Kind)

	fig := c.ToPlotly()
	data := fig["data"].([]map[string]any)
	require.Len(t, data, 1)
	assert.Equal(t, "scattergeo", data[0]["type"])
	assert.Equal(t, []string{"6901867", "6901868"}, data[0]["text"])
}

func TestSelectTimeSeries(t *testing.T) {
	tbl := table(
		[]store.Column{
			{Name: "timestamp", Kind: store.KindTime},
			{Name: "salinity", Kind: store.KindNumeric},
		},
		[]any{time.Now(), 35.1},
		[]any{time.Now(), 35.2},
	)
	c := Select(tbl)
	require.NotNil(t, c)
	assert.Equal(t, KindTimeSeries, c.Kind)
	assert.Equal(t, "salinity over Time", c.Title)

	fig := c.ToPlotly()
	layout := fig["layout"].(map[string]any)
	yaxis := layout["yaxis"].(map[string]any)
	assert.Equal(t, "salinity", yaxis["title"])
	assert.NotContains(t, yaxis, "autorange")
}

func TestSelectDepthProfileInvertsY(t *testing.T) {
	tbl := table(
		[]store.Column{
			{Name: "pressure", Kind: store.KindNumeric},
			{Name: "temperature", Kind: store.KindNumeric},
		},
		[]any{10.0, 25.1},
		[]any{200.0, 14.3},
	)
	c := Select(tbl)
	require.NotNil(t, c)
	assert.Equal(t, KindDepthProfile, c.Kind)
	// Temperature on X, pressure on Y.
	assert.Equal(t, "temperature", c.XLabel)
	assert.Equal(t, "pressure", c.YLabel)

	fig := c.ToPlotly()
	layout := fig["layout"].(map[string]any)
	yaxis := layout["yaxis"].(map[string]any)
	assert.Equal(t, "reversed", yaxis["autorange"])
}

func TestSelectGenericScatter(t *testing.T) {
	tbl := table(
		[]store.Column{
			{Name: "foo", Kind: store.KindNumeric},
			{Name: "bar", Kind: store.KindNumeric},
		},
		[]any{1.0, 2.0},
		[]any{3.0, 4.0},
	)
	c := Select(tbl)
	require.NotNil(t, c)
	assert.Equal(t, KindScatter, c.Kind)
	assert.Equal(t, "foo vs. bar", c.Title)

	fig := c.ToPlotly()
	data := fig["data"].([]map[string]any)
	assert.Equal(t, "lines+markers", data[0]["mode"])
}

func TestSelectDepthProfileAggregatedColumn(t *testing.T) {
	tbl := table(
		[]store.Column{
			{Name: "pressure", Kind: store.KindNumeric},
			{Name: "daily_average_temperature", Kind: store.KindNumeric},
		},
		[]any{10.0, 24.8},
		[]any{150.0, 16.2},
	)
	c := Select(tbl)
	require.NotNil(t, c)
	assert.Equal(t, KindDepthProfile, c.Kind)
	assert.Equal(t, "daily_average_temperature", c.XLabel)
	assert.Equal(t, "pressure", c.YLabel)

	layout := c.ToPlotly()["layout"].(map[string]any)
	yaxis := layout["yaxis"].(map[string]any)
	assert.Equal(t, "reversed", yaxis["autorange"])
}

func TestMarkerModeByRowCount(t *testing.T) {
	cols := []store.Column{
		{Name: "timestamp", Kind: store.KindTime},
		{Name: "temperature", Kind: store.KindNumeric},
	}
	series := func(n int) *store.ResultTable {
		tbl := &store.ResultTable{Columns: cols}
		for i := 0; i < n; i++ {
			tbl.Rows = append(tbl.Rows, []any{time.Now(), 20.0})
		}
		return tbl
	}

	cases := []struct {
		rows int
		mode string
		size int
	}{
		{10, "lines+markers", 6},
		{200, "lines+markers", 4},
		{600, "lines", 3},
	}
	for _, tc := range cases {
		trace := Select(series(tc.rows)).ToPlotly()["data"].([]map[string]any)[0]
		assert.Equal(t, tc.mode, trace["mode"], "%d rows", tc.rows)
		assert.Equal(t, tc.size, trace["marker"].(map[string]any)["size"], "%d rows", tc.rows)
	}
}

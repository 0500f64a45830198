package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statadvice/accidents/internal/fetcher"
	"github.com/statadvice/accidents/internal/model"
	"github.com/statadvice/accidents/internal/series"
	"github.com/statadvice/accidents/internal/tree"
)

func sampleRecords() []model.AccidentRecord {
	// 2022-08-01 is a Monday.
	monday := time.Date(2022, 8, 1, 10, 0, 0, 0, time.UTC)
	return []model.AccidentRecord{
		{ID: "1", Time: monday, Severity: model.SeverityLight, SeverityBinary: model.BinaryLight, District: "Nevskij", Lat: 59.93, Lon: 30.30, Cluster: 1},
		{ID: "2", Time: monday.Add(time.Hour), Severity: model.SeveritySevere, SeverityBinary: model.BinarySevereFatal, District: "Nevskij", Lat: 59.94, Lon: 30.31, Cluster: 1},
		{ID: "3", Time: monday.Add(24 * time.Hour), Severity: model.SeverityFatal, SeverityBinary: model.BinarySevereFatal, District: "Tsentralnyj", Lat: 59.95, Lon: 30.32, Cluster: 0},
	}
}

func TestWeekdayBars(t *testing.T) {
	var buf bytes.Buffer
	WeekdayBars(&buf, sampleRecords(), 10)

	out := buf.String()
	assert.Contains(t, out, "accidents by weekday:")
	assert.Contains(t, out, "Monday")
	assert.Contains(t, out, "Sunday")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8) // title + 7 weekdays

	// Monday has 2 of max 2 accidents: full bar.
	assert.Contains(t, lines[1], "Monday")
	assert.Contains(t, lines[1], strings.Repeat("#", 10))
	// Tuesday has 1 of 2: half bar.
	assert.Contains(t, lines[2], "Tuesday")
	assert.Contains(t, lines[2], strings.Repeat("#", 5))
}

func TestWeekdayBarsEmpty(t *testing.T) {
	var buf bytes.Buffer
	WeekdayBars(&buf, nil, 10)
	assert.Contains(t, buf.String(), "Monday")
}

func TestWriteHotspotMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotspots.html")

	require.NoError(t, WriteHotspotMap(path, sampleRecords()))

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(html)

	assert.Contains(t, s, "leaflet")
	assert.Contains(t, s, "circleMarker")
	assert.Contains(t, s, "cluster 1")
	assert.Contains(t, s, noiseColor) // cluster 0 stays gray
}

func TestWriteHotspotMapEmpty(t *testing.T) {
	err := WriteHotspotMap(filepath.Join(t.TempDir(), "x.html"), nil)
	assert.Error(t, err)
}

func TestWriteAccidentsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.xlsx")

	require.NoError(t, WriteAccidentsXLSX(path, sampleRecords()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWeatherXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.xlsx")
	obs := []model.WeatherObservation{
		{
			Key:           model.TimeKey{Date: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), Hour: 5},
			TemperatureC:  -7.5,
			Precipitation: 0.3,
			SnowfallCM:    2.1,
			WindSpeedKMH:  20,
			CloudCoverPct: 100,
		},
	}

	require.NoError(t, WriteWeatherXLSX(path, obs))

	back, err := fetcher.ReadWeatherXLSX(path)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, obs[0], back[0])
}

func TestRulesOutput(t *testing.T) {
	m := series.Matrix{Names: []string{"x"}}
	v := func(f float64) *float64 { return &f }
	for i := 0; i < 40; i++ {
		m.Rows = append(m.Rows, []*float64{v(float64(i))})
		m.Target = append(m.Target, float64(i/20))
	}

	mo, err := tree.Fit(m, tree.Params{Kind: tree.Regression, MaxDepth: 2, MinLeaf: 5})
	require.NoError(t, err)

	var buf bytes.Buffer
	Rules(&buf, map[series.GroupID]*tree.Model{"Nevskij": mo})

	assert.Contains(t, buf.String(), "rules for Nevskij")
	assert.Contains(t, buf.String(), "IF ")
}

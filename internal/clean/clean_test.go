package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statadvice/accidents/internal/config"
	"github.com/statadvice/accidents/internal/model"
)

func testCfg() config.CleanConfig {
	return config.CleanConfig{MinLongitude: 10, YearFrom: 2022, YearTo: 2024}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name string
		text string
		lat  float64
		lon  float64
		ok   bool
	}{
		{"wkt point", "POINT (30.3158 59.9343)", 59.9343, 30.3158, true},
		{"bare pair", "30.3158 59.9343", 59.9343, 30.3158, true},
		{"comma separated", "30.3158, 59.9343", 59.9343, 30.3158, true},
		{"garbage", "not a point", 0, 0, false},
		{"empty", "", 0, 0, false},
		{"single number", "30.3", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParsePoint(tt.text)
			if !tt.ok {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.InDelta(t, tt.lat, c.Lat, 1e-9)
			assert.InDelta(t, tt.lon, c.Lon, 1e-9)
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		label    string
		expected model.Severity
		ok       bool
	}{
		{"Легкий", model.SeverityLight, true},
		{"Тяжёлый", model.SeveritySevere, true},
		{"тяжелый", model.SeveritySevere, true},
		{"С погибшими", model.SeverityFatal, true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			s, ok := ParseSeverity(tt.label)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, s)
			}
		})
	}
}

func TestDistrict(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Невский район", "Nevskij"},
		{"Невский", "Nevskij"},
		{"Центральный район", "Tsentralnyj"},
		{"Петроградский район", "Petrogradskij"},
		{"Already Latin", "Already Latin"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, District(tt.in))
		})
	}
}

func TestRunDropsUnparseableCoordinates(t *testing.T) {
	records := []model.RawRecord{
		{ID: "a", Datetime: "2022-01-01 10:00:00", Severity: "Легкий", District: "Невский район", PointText: "POINT (30.3 59.9)"},
		{ID: "b", Datetime: "2022-01-01 11:00:00", Severity: "Легкий", District: "Невский район", PointText: "broken"},
	}

	out, stats := Run(records, testCfg())

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, 1, stats.NoCoordinate)
}

func TestRunLongitudeFilter(t *testing.T) {
	// Longitude 2.0 is far outside the city's real range and must be
	// excluded with the threshold at 10.
	records := []model.RawRecord{
		{ID: "good", Datetime: "2022-06-01 10:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (30.3 59.9)"},
		{ID: "misgeocoded", Datetime: "2022-06-01 10:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (2.0 48.8)"},
	}

	out, stats := Run(records, testCfg())

	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0].ID)
	assert.Equal(t, 1, stats.OutOfRange)
}

func TestRunYearFilter(t *testing.T) {
	records := []model.RawRecord{
		{ID: "2021", Datetime: "2021-12-31 23:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (30.3 59.9)"},
		{ID: "2022", Datetime: "2022-01-01 00:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (30.3 59.9)"},
		{ID: "2024", Datetime: "2024-12-31 23:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (30.3 59.9)"},
		{ID: "2025", Datetime: "2025-01-01 00:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (30.3 59.9)"},
	}

	out, stats := Run(records, testCfg())

	require.Len(t, out, 2)
	assert.Equal(t, "2022", out[0].ID)
	assert.Equal(t, "2024", out[1].ID)
	assert.Equal(t, 2, stats.OutsideYears)
}

func TestRunDerivesBinarySeverity(t *testing.T) {
	records := []model.RawRecord{
		{ID: "l", Datetime: "2022-01-01 10:00:00", Severity: "Легкий", District: "Невский", PointText: "POINT (30.3 59.9)"},
		{ID: "s", Datetime: "2022-01-02 10:00:00", Severity: "Тяжёлый", District: "Невский", PointText: "POINT (30.3 59.9)"},
		{ID: "f", Datetime: "2022-01-03 10:00:00", Severity: "С погибшими", District: "Невский", PointText: "POINT (30.3 59.9)"},
	}

	out, _ := Run(records, testCfg())
	require.Len(t, out, 3)

	for _, r := range out {
		if r.Severity == model.SeveritySevere || r.Severity == model.SeverityFatal {
			assert.Equal(t, model.BinarySevereFatal, r.SeverityBinary, r.ID)
		} else {
			assert.Equal(t, model.BinaryLight, r.SeverityBinary, r.ID)
		}
	}
}

func TestTransliterate(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Невский", "Nevskij"},
		{"Пушкинский", "Pushkinskij"},
		{"Юго-Запад", "Jugo-Zapad"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Transliterate(tt.in), tt.in)
	}
}

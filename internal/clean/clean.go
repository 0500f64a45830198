// Package clean turns raw accident features into the normalized,
// filtered table every downstream stage consumes.
package clean

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/config"
	"github.com/statadvice/accidents/internal/model"
)

// pointRe extracts the two coordinate literals from the embedded point
// text, longitude first (WKT order).
var pointRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)[,\s]+(-?\d+(?:\.\d+)?)`)

// severityLabels maps source-language severity labels onto the
// normalized enum.
var severityLabels = map[string]model.Severity{
	"легкий":      model.SeverityLight,
	"лёгкий":      model.SeverityLight,
	"тяжелый":     model.SeveritySevere,
	"тяжёлый":     model.SeveritySevere,
	"с погибшими": model.SeverityFatal,
	"со смертельным исходом": model.SeverityFatal,
}

// districtSuffix is the trailing administrative-unit word on district
// names ("Невский район" -> "Невский").
const districtSuffix = "район"

// datetimeLayouts are the timestamp formats seen in the source dataset.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Stats summarizes a cleaning pass for manual inspection of the filters.
type Stats struct {
	Input        int
	NoCoordinate int
	BadDatetime  int
	BadSeverity  int
	OutOfRange   int // longitude below the sanity threshold
	OutsideYears int
	Kept         int

	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// ParsePoint extracts (lat, lon) from embedded point text. It fails
// open: any text the pattern does not match yields nil, never an error.
func ParsePoint(text string) *model.Coordinate {
	m := pointRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	lon, err1 := strconv.ParseFloat(m[1], 64)
	lat, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &model.Coordinate{Lat: lat, Lon: lon}
}

// ParseSeverity normalizes a source severity label. The second return
// is false for labels outside the known set.
func ParseSeverity(label string) (model.Severity, bool) {
	s, ok := severityLabels[strings.ToLower(strings.TrimSpace(label))]
	return s, ok
}

// District canonicalizes a district name: the trailing administrative
// suffix is dropped and the remainder transliterated to Latin script.
func District(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, districtSuffix) {
		name = strings.TrimSpace(name[:len(name)-len(districtSuffix)])
	}
	return Transliterate(name)
}

// Run cleans raw records into the immutable accident table. Rows with
// unparseable coordinates, timestamps or severity labels are dropped,
// as are rows failing the longitude sanity threshold or the year range.
// Coordinate extremes before and after filtering go to the log so
// geocoding defects stay inspectable.
func Run(records []model.RawRecord, cfg config.CleanConfig) ([]model.AccidentRecord, Stats) {
	log := zap.L().With(zap.String("component", "clean"))

	stats := Stats{
		Input:  len(records),
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}

	preMinLon, preMaxLon := math.Inf(1), math.Inf(-1)

	out := make([]model.AccidentRecord, 0, len(records))
	for _, raw := range records {
		coord := ParsePoint(raw.PointText)
		if coord == nil {
			stats.NoCoordinate++
			continue
		}
		preMinLon = math.Min(preMinLon, coord.Lon)
		preMaxLon = math.Max(preMaxLon, coord.Lon)

		ts, err := parseDatetime(raw.Datetime)
		if err != nil {
			stats.BadDatetime++
			continue
		}

		severity, ok := ParseSeverity(raw.Severity)
		if !ok {
			stats.BadSeverity++
			continue
		}

		if coord.Lon <= cfg.MinLongitude {
			stats.OutOfRange++
			continue
		}
		if year := ts.Year(); year < cfg.YearFrom || year > cfg.YearTo {
			stats.OutsideYears++
			continue
		}

		out = append(out, model.AccidentRecord{
			ID:             raw.ID,
			Time:           ts,
			Severity:       severity,
			SeverityBinary: severity.Binary(),
			District:       District(raw.District),
			Lat:            coord.Lat,
			Lon:            coord.Lon,
		})

		stats.MinLat = math.Min(stats.MinLat, coord.Lat)
		stats.MaxLat = math.Max(stats.MaxLat, coord.Lat)
		stats.MinLon = math.Min(stats.MinLon, coord.Lon)
		stats.MaxLon = math.Max(stats.MaxLon, coord.Lon)
	}
	stats.Kept = len(out)

	log.Info("cleaned accident records",
		zap.Int("input", stats.Input),
		zap.Int("kept", stats.Kept),
		zap.Int("no_coordinate", stats.NoCoordinate),
		zap.Int("bad_datetime", stats.BadDatetime),
		zap.Int("bad_severity", stats.BadSeverity),
		zap.Int("longitude_filtered", stats.OutOfRange),
		zap.Int("outside_years", stats.OutsideYears),
		zap.Float64("lon_min_prefilter", preMinLon),
		zap.Float64("lon_max_prefilter", preMaxLon),
		zap.Float64("lon_min", stats.MinLon),
		zap.Float64("lon_max", stats.MaxLon),
		zap.Float64("lat_min", stats.MinLat),
		zap.Float64("lat_max", stats.MaxLat),
	)

	return out, stats
}

func parseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

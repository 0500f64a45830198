// Package fetcher reads the external accident and weather datasets into
// in-memory records. It owns file formats only; cleaning and normalization
// live in internal/clean.
package fetcher

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

// ReadGeoJSON reads a GeoJSON FeatureCollection of accident points.
// Each feature carries the properties id, point, datetime, severity and
// region. When the point property is absent the feature geometry is
// formatted into WKT-style point text instead, so the cleaner always
// sees one textual coordinate representation.
func ReadGeoJSON(path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read geojson")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "fetcher: unmarshal feature collection")
	}

	log := zap.L().With(zap.String("component", "fetcher.geojson"))

	records := make([]model.RawRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}

		rec := model.RawRecord{
			ID:        propString(f.Properties, "id"),
			Datetime:  propString(f.Properties, "datetime"),
			Severity:  propString(f.Properties, "severity"),
			District:  propString(f.Properties, "region"),
			PointText: propString(f.Properties, "point"),
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("feature-%d", i)
		}
		if rec.PointText == "" {
			rec.PointText = pointWKT(f.Geometry)
		}

		records = append(records, rec)
	}

	log.Info("loaded accident features",
		zap.String("path", path),
		zap.Int("features", len(records)),
	)
	return records, nil
}

// propString reads a property as a string, tolerating numeric ids.
func propString(props map[string]interface{}, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// pointWKT formats a point geometry as WKT, lon before lat.
func pointWKT(g geom.T) string {
	p, ok := g.(*geom.Point)
	if !ok || p == nil {
		return ""
	}
	c := p.Coords()
	if len(c) < 2 {
		return ""
	}
	return fmt.Sprintf("POINT (%g %g)", c[0], c[1])
}

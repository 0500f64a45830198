package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [30.3158, 59.9343]},
      "properties": {
        "id": 101,
        "point": "POINT (30.3158 59.9343)",
        "datetime": "2022-05-01 17:30:00",
        "severity": "Легкий",
        "region": "Невский район"
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [30.32, 59.95]},
      "properties": {
        "datetime": "2022-05-02 09:00:00",
        "severity": "Тяжёлый",
        "region": "Центральный район"
      }
    }
  ]
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadGeoJSON(t *testing.T) {
	path := writeTemp(t, "accidents.geojson", sampleGeoJSON)

	records, err := ReadGeoJSON(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "101", records[0].ID)
	assert.Equal(t, "POINT (30.3158 59.9343)", records[0].PointText)
	assert.Equal(t, "2022-05-01 17:30:00", records[0].Datetime)
	assert.Equal(t, "Легкий", records[0].Severity)
	assert.Equal(t, "Невский район", records[0].District)
}

func TestReadGeoJSONFallsBackToGeometry(t *testing.T) {
	path := writeTemp(t, "accidents.geojson", sampleGeoJSON)

	records, err := ReadGeoJSON(path)
	require.NoError(t, err)

	// Second feature has no point property; the geometry is formatted
	// instead, and a synthetic id is assigned.
	assert.Equal(t, "POINT (30.32 59.95)", records[1].PointText)
	assert.Equal(t, "feature-1", records[1].ID)
}

func TestReadGeoJSONMissingFile(t *testing.T) {
	_, err := ReadGeoJSON(filepath.Join(t.TempDir(), "nope.geojson"))
	assert.Error(t, err)
}

func TestReadGeoJSONMalformed(t *testing.T) {
	path := writeTemp(t, "bad.geojson", `{"type": "FeatureCollection", "features": [{]}`)
	_, err := ReadGeoJSON(path)
	assert.Error(t, err)
}

package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/statadvice/accidents/internal/model"
)

// markerPalette colors cluster markers; noise stays gray. Clusters
// beyond the palette wrap around.
var markerPalette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#008080", "#9a6324",
}

const noiseColor = "#808080"

const mapTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Accident hotspots</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([%f, %f], 11);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
%s
</script>
</body>
</html>
`

// WriteHotspotMap writes a standalone HTML map with one circle marker
// per record, colored by cluster id.
func WriteHotspotMap(path string, records []model.AccidentRecord) error {
	if len(records) == 0 {
		return eris.New("report: no records to map")
	}

	var centerLat, centerLon float64
	for _, r := range records {
		centerLat += r.Lat
		centerLon += r.Lon
	}
	centerLat /= float64(len(records))
	centerLon /= float64(len(records))

	var markers strings.Builder
	for _, r := range records {
		color := noiseColor
		if r.Cluster > 0 {
			color = markerPalette[(r.Cluster-1)%len(markerPalette)]
		}
		fmt.Fprintf(&markers,
			"L.circleMarker([%f, %f], {radius: 4, color: '%s', fillOpacity: 0.7}).bindPopup('cluster %d').addTo(map);\n",
			r.Lat, r.Lon, color, r.Cluster)
	}

	html := fmt.Sprintf(mapTemplate, centerLat, centerLon, markers.String())
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return eris.Wrap(err, "report: write hotspot map")
	}
	return nil
}

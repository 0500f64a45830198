package fetcher

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

// weather column order, matching the archive download layout.
const (
	colTime = iota
	colTemperature
	colPrecipitation
	colSnowfall
	colWindSpeed
	colCloudCover
	weatherCols
)

// timeLayouts are the timestamp formats accepted in the weather sheet.
var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ReadWeatherXLSX reads the hourly weather spreadsheet. The first row is
// a header and is skipped; rows with an unparseable timestamp are skipped
// with a warning rather than failing the load.
func ReadWeatherXLSX(path string) ([]model.WeatherObservation, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open weather xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("fetcher: weather xlsx has no sheets")
	}
	sheet := f.Sheets[0]

	log := zap.L().With(zap.String("component", "fetcher.weather"))

	var obs []model.WeatherObservation
	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}
		cells := rowToStrings(row)
		if len(cells) < weatherCols || strings.TrimSpace(cells[colTime]) == "" {
			continue
		}

		ts, err := parseTimestamp(cells[colTime])
		if err != nil {
			log.Warn("skipping weather row with bad timestamp",
				zap.Int("row", i),
				zap.String("value", cells[colTime]),
			)
			continue
		}

		obs = append(obs, model.WeatherObservation{
			Key:           model.TimeKeyOf(ts),
			TemperatureC:  cellFloat(cells[colTemperature]),
			Precipitation: cellFloat(cells[colPrecipitation]),
			SnowfallCM:    cellFloat(cells[colSnowfall]),
			WindSpeedKMH:  cellFloat(cells[colWindSpeed]),
			CloudCoverPct: cellFloat(cells[colCloudCover]),
		})
	}

	log.Info("loaded weather observations",
		zap.String("path", path),
		zap.Int("rows", len(obs)),
	)
	return obs, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		cells = append(cells, c.String())
	}
	return cells
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("fetcher: unrecognized timestamp %q", s)
}

func cellFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

// WriteAccidentsXLSX exports the cleaned accident table (post-filter,
// pre-aggregation) to a spreadsheet.
func WriteAccidentsXLSX(path string, records []model.AccidentRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("accidents")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{
		"id", "datetime", "severity", "severity_binary", "district", "lat", "lon", "cluster",
	} {
		header.AddCell().SetString(name)
	}

	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.Time.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(string(r.Severity))
		row.AddCell().SetString(string(r.SeverityBinary))
		row.AddCell().SetString(r.District)
		row.AddCell().SetFloat(r.Lat)
		row.AddCell().SetFloat(r.Lon)
		row.AddCell().SetInt(r.Cluster)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save accidents xlsx")
	}

	zap.L().Info("exported cleaned accidents",
		zap.String("component", "report"),
		zap.String("path", path),
		zap.Int("rows", len(records)),
	)
	return nil
}

// WriteWeatherXLSX writes hourly weather observations in the layout the
// fetcher reads back.
func WriteWeatherXLSX(path string, obs []model.WeatherObservation) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("weather")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{
		"time", "temperature_2m", "precipitation", "snowfall", "wind_speed_10m", "cloud_cover",
	} {
		header.AddCell().SetString(name)
	}

	for _, o := range obs {
		row := sheet.AddRow()
		row.AddCell().SetString(o.Key.Time().Format("2006-01-02T15:04"))
		row.AddCell().SetFloat(o.TemperatureC)
		row.AddCell().SetFloat(o.Precipitation)
		row.AddCell().SetFloat(o.SnowfallCM)
		row.AddCell().SetFloat(o.WindSpeedKMH)
		row.AddCell().SetFloat(o.CloudCoverPct)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save weather xlsx")
	}
	return nil
}

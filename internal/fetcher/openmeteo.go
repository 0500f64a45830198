package fetcher

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/statadvice/accidents/internal/model"
	"github.com/statadvice/accidents/pkg/openmeteo"
)

// FromOpenMeteo converts an archive API response into weather
// observations. The parallel hourly arrays must have equal length.
func FromOpenMeteo(resp *openmeteo.HourlyResponse) ([]model.WeatherObservation, error) {
	h := resp.Hourly
	n := len(h.Time)
	if len(h.Temperature2M) != n || len(h.Precipitation) != n ||
		len(h.Snowfall) != n || len(h.WindSpeed10M) != n || len(h.CloudCover) != n {
		return nil, eris.New("fetcher: ragged hourly arrays in archive response")
	}

	obs := make([]model.WeatherObservation, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse("2006-01-02T15:04", h.Time[i])
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: parse archive timestamp %q", h.Time[i])
		}
		obs = append(obs, model.WeatherObservation{
			Key:           model.TimeKeyOf(ts),
			TemperatureC:  h.Temperature2M[i],
			Precipitation: h.Precipitation[i],
			SnowfallCM:    h.Snowfall[i],
			WindSpeedKMH:  h.WindSpeed10M[i],
			CloudCoverPct: h.CloudCover[i],
		})
	}
	return obs, nil
}

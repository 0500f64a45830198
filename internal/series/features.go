package series

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

// LagMode selects how lag offsets treat day boundaries.
type LagMode int

const (
	// LagContinuous shifts over the full chronological ordering.
	LagContinuous LagMode = iota
	// LagDailyReset truncates lag windows at midnight, reproducing the
	// original pipeline's per-day grouping.
	LagDailyReset
)

// FeatureTable is the wide grid joined with weather observations.
// Weather entries are nil where no observation matched the (date, hour)
// key; the missing markers flow through to model fitting.
type FeatureTable struct {
	Grid
	Weather []*model.WeatherObservation // parallel to Times
}

// JoinWeather equality-joins hourly weather onto the grid. Rows without
// a matching observation keep their counts and get a nil weather entry.
func JoinWeather(g Grid, obs []model.WeatherObservation) FeatureTable {
	byKey := make(map[model.TimeKey]*model.WeatherObservation, len(obs))
	for i := range obs {
		o := obs[i]
		byKey[o.Key] = &o
	}

	weather := make([]*model.WeatherObservation, len(g.Times))
	matched := 0
	for i, key := range g.Times {
		if o, ok := byKey[key]; ok {
			weather[i] = o
			matched++
		}
	}

	zap.L().Info("joined weather observations",
		zap.String("component", "series"),
		zap.Int("rows", len(g.Times)),
		zap.Int("matched", matched),
	)
	return FeatureTable{Grid: g, Weather: weather}
}

// Lag shifts a count series backward by the given hourly offset. Values
// with no history (the first offset hours, or the first offset hours of
// each day under LagDailyReset) are nil.
func Lag(counts []int, times []model.TimeKey, offset int, mode LagMode) []*float64 {
	out := make([]*float64, len(counts))
	for i := range counts {
		j := i - offset
		if j < 0 {
			continue
		}
		if mode == LagDailyReset && !times[i].Date.Equal(times[j].Date) {
			continue
		}
		v := float64(counts[j])
		out[i] = &v
	}
	return out
}

// Matrix holds one group's training rows. Predictors are positional and
// named; nil cells are missing values.
type Matrix struct {
	Names  []string
	Rows   [][]*float64
	Target []float64
}

// BuildMatrix assembles the training matrix for one group: lag features
// at the given offsets, calendar features (day-of-week, month, hour as
// small integer categories for both pipelines), and the weather
// covariates. With binary set, the target is presence (count > 0)
// instead of the count itself.
func BuildMatrix(ft FeatureTable, group GroupID, offsets []int, mode LagMode, binary bool) Matrix {
	counts, ok := ft.Counts[group]
	if !ok {
		return Matrix{}
	}

	names := make([]string, 0, len(offsets)+8)
	for _, off := range offsets {
		names = append(names, fmt.Sprintf("lag_%d", off))
	}
	names = append(names,
		"day_of_week", "month", "hour",
		"temperature_c", "precipitation", "snowfall_cm", "wind_speed_kmh", "cloud_cover_pct",
	)

	lags := make([][]*float64, len(offsets))
	for k, off := range offsets {
		lags[k] = Lag(counts, ft.Times, off, mode)
	}

	rows := make([][]*float64, len(ft.Times))
	target := make([]float64, len(ft.Times))
	for i, key := range ft.Times {
		row := make([]*float64, 0, len(names))
		for k := range offsets {
			row = append(row, lags[k][i])
		}

		t := key.Time()
		row = append(row,
			ptr(float64(t.Weekday())),
			ptr(float64(t.Month())),
			ptr(float64(key.Hour)),
		)

		if w := ft.Weather[i]; w != nil {
			row = append(row,
				ptr(w.TemperatureC),
				ptr(w.Precipitation),
				ptr(w.SnowfallCM),
				ptr(w.WindSpeedKMH),
				ptr(w.CloudCoverPct),
			)
		} else {
			row = append(row, nil, nil, nil, nil, nil)
		}

		rows[i] = row

		if binary {
			if counts[i] > 0 {
				target[i] = 1
			}
		} else {
			target[i] = float64(counts[i])
		}
	}

	return Matrix{Names: names, Rows: rows, Target: target}
}

func ptr(v float64) *float64 {
	return &v
}

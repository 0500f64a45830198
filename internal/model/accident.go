package model

import (
	"fmt"
	"time"
)

// Severity is the normalized accident severity.
type Severity string

const (
	SeverityLight  Severity = "light"
	SeveritySevere Severity = "severe"
	SeverityFatal  Severity = "fatal"
)

// SeverityBinary collapses the 3-value severity into a two-class label.
type SeverityBinary string

const (
	BinaryLight       SeverityBinary = "light"
	BinarySevereFatal SeverityBinary = "severe_fatal"
)

// Binary maps a severity to its two-class label: severe and fatal
// accidents collapse into one class, everything else is light.
func (s Severity) Binary() SeverityBinary {
	if s == SeveritySevere || s == SeverityFatal {
		return BinarySevereFatal
	}
	return BinaryLight
}

// RawRecord is an accident feature as read from the source dataset,
// before cleaning. All fields are carried as source text; the cleaner
// owns parsing and normalization.
type RawRecord struct {
	ID        string
	Datetime  string // e.g. "2023-05-12 17:40:00"
	Severity  string // source-language label, not yet normalized
	District  string // source-language district name
	PointText string // embedded point representation, e.g. "POINT (30.31 59.94)"
}

// AccidentRecord is a cleaned, immutable accident row. Produced once by
// the cleaner and never mutated downstream.
type AccidentRecord struct {
	ID             string         `json:"id"`
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	SeverityBinary SeverityBinary `json:"severity_binary"`
	District       string         `json:"district"`
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	Cluster        int            `json:"cluster"` // 0 = noise, assigned after clustering
}

// Coordinate is a deduplicated (lat, lon) pair used as the clustering unit.
type Coordinate struct {
	Lat float64
	Lon float64
}

// ClusterAssignment maps deduplicated coordinates to integer cluster ids.
// Id 0 is reserved for noise.
type ClusterAssignment map[Coordinate]int

// TimeKey identifies one hourly cell of the aggregation grid.
type TimeKey struct {
	Date time.Time // midnight UTC of the day
	Hour int       // 0..23
}

// Time returns the instant the key addresses.
func (k TimeKey) Time() time.Time {
	return k.Date.Add(time.Duration(k.Hour) * time.Hour)
}

// String renders the key as "2022-01-01T03".
func (k TimeKey) String() string {
	return fmt.Sprintf("%sT%02d", k.Date.Format("2006-01-02"), k.Hour)
}

// TimeKeyOf truncates a timestamp to its grid key.
func TimeKeyOf(t time.Time) TimeKey {
	u := t.UTC()
	return TimeKey{
		Date: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC),
		Hour: u.Hour(),
	}
}

// WeatherObservation holds hourly weather covariates joined onto the grid
// by (date, hour) equality.
type WeatherObservation struct {
	Key           TimeKey
	TemperatureC  float64
	Precipitation float64
	SnowfallCM    float64
	WindSpeedKMH  float64
	CloudCoverPct float64
}

// RunStatus represents the state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// AnalysisRun records one batch execution for the store.
type AnalysisRun struct {
	ID         string    `json:"id"`
	Status     RunStatus `json:"status"`
	EpsMeters  float64   `json:"eps_meters"`
	MinPts     int       `json:"min_pts"`
	Records    int       `json:"records"`
	Districts  int       `json:"districts"`
	Clusters   int       `json:"clusters"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

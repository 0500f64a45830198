// Package series builds the hourly aggregation grid and the model
// features derived from it. Group series are addressed by explicit
// GroupID values, never by column-name conventions.
package series

import (
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

// GroupID identifies one aggregation group: a district name or a
// cluster id.
type GroupID string

// GroupFunc assigns a record to its group.
type GroupFunc func(model.AccidentRecord) GroupID

// ByDistrict groups records by cleaned district name.
func ByDistrict(r model.AccidentRecord) GroupID {
	return GroupID(r.District)
}

// ByCluster groups records by hotspot cluster id, noise included as
// cluster 0.
func ByCluster(r model.AccidentRecord) GroupID {
	return GroupID("cluster_" + strconv.Itoa(r.Cluster))
}

// Grid is the complete (date x hour x group) aggregation: for every
// hour of every day in the observed range and every distinct group
// there is exactly one count, zero when nothing was observed.
type Grid struct {
	Times  []model.TimeKey   // chronological, days x 24
	Groups []GroupID         // sorted, distinct
	Counts map[GroupID][]int // one series per group, len == len(Times)
}

// Rows is the total cell count, |times| x |groups|.
func (g Grid) Rows() int {
	return len(g.Times) * len(g.Groups)
}

// Build aggregates records into a complete grid. The date range spans
// the minimum to the maximum observed date inclusive; missing
// (date, hour, group) combinations are zero-filled on construction.
func Build(records []model.AccidentRecord, groupFn GroupFunc) Grid {
	if len(records) == 0 {
		return Grid{Counts: map[GroupID][]int{}}
	}

	minDate := model.TimeKeyOf(records[0].Time).Date
	maxDate := minDate
	groupSet := map[GroupID]bool{}
	observed := map[model.TimeKey]map[GroupID]int{}

	for _, r := range records {
		key := model.TimeKeyOf(r.Time)
		if key.Date.Before(minDate) {
			minDate = key.Date
		}
		if key.Date.After(maxDate) {
			maxDate = key.Date
		}
		g := groupFn(r)
		groupSet[g] = true
		if observed[key] == nil {
			observed[key] = map[GroupID]int{}
		}
		observed[key][g]++
	}

	groups := make([]GroupID, 0, len(groupSet))
	for g := range groupSet {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	var times []model.TimeKey
	for d := minDate; !d.After(maxDate); d = d.Add(24 * time.Hour) {
		for h := 0; h < 24; h++ {
			times = append(times, model.TimeKey{Date: d, Hour: h})
		}
	}

	counts := make(map[GroupID][]int, len(groups))
	for _, g := range groups {
		counts[g] = make([]int, len(times))
	}
	for i, key := range times {
		for g, n := range observed[key] {
			counts[g][i] = n
		}
	}

	grid := Grid{Times: times, Groups: groups, Counts: counts}
	zap.L().Info("built aggregation grid",
		zap.String("component", "series"),
		zap.Int("days", len(times)/24),
		zap.Int("groups", len(groups)),
		zap.Int("rows", grid.Rows()),
	)
	return grid
}

// ZeroFill completes a grid in place of missing series: groups listed
// without a count series get an all-zero one, and short series are
// padded with zeros to the grid length. Running it on an already
// complete grid changes nothing.
func ZeroFill(g Grid) Grid {
	counts := make(map[GroupID][]int, len(g.Groups))
	for _, group := range g.Groups {
		series := make([]int, len(g.Times))
		copy(series, g.Counts[group])
		counts[group] = series
	}
	return Grid{Times: g.Times, Groups: g.Groups, Counts: counts}
}

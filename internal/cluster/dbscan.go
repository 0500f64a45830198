// Package cluster finds accident hotspots with density-based clustering
// over deduplicated coordinate pairs.
package cluster

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/model"
)

const earthRadiusM = 6371000.0

// Params holds the DBSCAN parameters.
type Params struct {
	EpsMeters float64 // neighborhood radius
	MinPts    int     // minimum neighbors (self included) to form a dense region
}

// Noise is the cluster id of points not belonging to any dense region.
const Noise = 0

// Assign runs DBSCAN over the distinct coordinates of the given records.
// Points are visited in ascending (lat, lon) order and cluster ids are
// assigned 1..k in discovery order, so the result is a pure function of
// the coordinate set and the parameters. When MinPts exceeds the density
// of every region the whole set is labeled noise; that is valid output.
func Assign(records []model.AccidentRecord, p Params) model.ClusterAssignment {
	points := distinctCoordinates(records)

	const unvisited = -1
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}

	neighbors := func(i int) []int {
		var out []int
		for j := range points {
			if haversineM(points[i], points[j]) <= p.EpsMeters {
				out = append(out, j)
			}
		}
		return out
	}

	next := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		n := neighbors(i)
		if len(n) < p.MinPts {
			labels[i] = Noise
			continue
		}

		next++
		labels[i] = next

		// Expand the dense region breadth-first. Neighbor lists are in
		// index order, which keeps expansion deterministic.
		queue := append([]int(nil), n...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == Noise {
				labels[j] = next // border point previously labeled noise
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = next

			jn := neighbors(j)
			if len(jn) >= p.MinPts {
				queue = append(queue, jn...)
			}
		}
	}

	assignment := make(model.ClusterAssignment, len(points))
	for i, pt := range points {
		assignment[pt] = labels[i]
	}

	zap.L().Info("clustered accident coordinates",
		zap.String("component", "cluster"),
		zap.Int("points", len(points)),
		zap.Int("clusters", next),
		zap.Float64("eps_meters", p.EpsMeters),
		zap.Int("min_pts", p.MinPts),
	)
	return assignment
}

// Apply joins the assignment back onto the records by coordinate
// equality, returning a new slice. Records at unassigned coordinates
// stay at cluster 0.
func Apply(records []model.AccidentRecord, assignment model.ClusterAssignment) []model.AccidentRecord {
	out := make([]model.AccidentRecord, len(records))
	for i, r := range records {
		r.Cluster = assignment[model.Coordinate{Lat: r.Lat, Lon: r.Lon}]
		out[i] = r
	}
	return out
}

// Count returns the number of non-noise clusters in the assignment.
func Count(assignment model.ClusterAssignment) int {
	seen := map[int]bool{}
	for _, id := range assignment {
		if id != Noise {
			seen[id] = true
		}
	}
	return len(seen)
}

func distinctCoordinates(records []model.AccidentRecord) []model.Coordinate {
	set := make(map[model.Coordinate]bool, len(records))
	for _, r := range records {
		set[model.Coordinate{Lat: r.Lat, Lon: r.Lon}] = true
	}
	points := make([]model.Coordinate, 0, len(set))
	for c := range set {
		points = append(points, c)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Lat != points[j].Lat {
			return points[i].Lat < points[j].Lat
		}
		return points[i].Lon < points[j].Lon
	})
	return points
}

// haversineM is the great-circle distance between two coordinates in meters.
func haversineM(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

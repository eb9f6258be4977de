package query

import (
	"github.com/floralens/bloom-data-service/internal/domain"
)

// Data sources chosen by Region.Resolve.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Rect is an inclusive latitude/longitude bounding box.
type Rect struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Contains reports whether (lat, lon) lies inside the box.
func (r Rect) Contains(lat, lon float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lon >= r.LonMin && lon <= r.LonMax
}

// Region classifies coordinates for data sourcing: a bounding box, carve-out
// rectangles for known false positives, and a gate on how far (in degrees) a
// query may sit from the nearest local observation. The original system had
// several divergent hard-coded versions of this; the box and exclusions are
// parameters here.
type Region struct {
	Name        string
	Bounds      Rect
	Exclusions  []Rect
	DistanceDeg float64
}

// Americas is the default coverage region for the local dataset, with
// carve-outs for mid-Atlantic islands that the box test misclassifies.
var Americas = Region{
	Name:   "americas",
	Bounds: Rect{LatMin: -56, LatMax: 72, LonMin: -168, LonMax: -34},
	Exclusions: []Rect{
		{LatMin: 31.9, LatMax: 32.6, LonMin: -65.2, LonMax: -64.4}, // Bermuda
		{LatMin: 36.0, LatMax: 40.0, LonMin: -34.0, LonMax: -24.0}, // Azores fringe
	},
	DistanceDeg: 5,
}

// Contains reports whether (lat, lon) is inside the region's bounds and
// outside every exclusion rectangle.
func (r Region) Contains(lat, lon float64) bool {
	if !r.Bounds.Contains(lat, lon) {
		return false
	}
	for _, ex := range r.Exclusions {
		if ex.Contains(lat, lon) {
			return false
		}
	}
	return true
}

// Resolve decides where data for (lat, lon) should come from: the local
// dataset, or the remote weather API. Even inside the region, a coordinate
// farther than DistanceDeg from every local observation resolves to remote.
// Total and deterministic for every coordinate pair.
func (r Region) Resolve(lat, lon float64, points []domain.Observation) string {
	if !r.Contains(lat, lon) {
		return SourceRemote
	}
	if r.DistanceDeg <= 0 {
		return SourceLocal
	}
	for _, p := range points {
		if degreeDistance(p.Lat, p.Lon, lat, lon) <= r.DistanceDeg {
			return SourceLocal
		}
	}
	return SourceRemote
}

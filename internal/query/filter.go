// Package query implements the read-side logic over an observation snapshot:
// expanding-radius spatial filtering, (year, month) aggregation, LOD-budgeted
// sampling, and region classification. All functions are pure over their
// inputs; the several near-duplicate versions of this logic in the original
// system are collapsed here into one parameterized implementation.
package query

import (
	"math"
	"slices"

	"github.com/floralens/bloom-data-service/internal/domain"
)

// DefaultRadii is the expanding square search sequence, in degrees.
var DefaultRadii = []float64{0.5, 1, 2, 5, 10}

// DefaultNearestK bounds the nearest-point fallback when every radius
// comes up empty.
const DefaultNearestK = 50

// FilterOptions tunes Near. Zero values select the defaults; Year/Month of 0
// mean "any".
type FilterOptions struct {
	Radii    []float64
	NearestK int
	Year     int
	Month    int
}

// FilterResult carries the matched points plus how they were found, so
// callers can surface the widening instead of hiding it.
type FilterResult struct {
	Points []domain.Observation
	// RadiusDeg is the square radius that produced the match, 0 when the
	// nearest-K fallback engaged.
	RadiusDeg       float64
	NearestFallback bool
}

// Near finds observations around (lat, lon) by trying each radius in order
// and taking the first non-empty match. Radii are square (degree offsets on
// both axes), and distance is Euclidean in degrees throughout; not metric
// across latitudes, but sufficient for the consuming chart. When no radius
// matches, the nearest K points are returned instead.
func Near(points []domain.Observation, lat, lon float64, opts FilterOptions) FilterResult {
	radii := opts.Radii
	if len(radii) == 0 {
		radii = DefaultRadii
	}
	k := opts.NearestK
	if k <= 0 {
		k = DefaultNearestK
	}

	for _, r := range radii {
		var matched []domain.Observation
		for _, p := range points {
			if !matchesTime(p, opts.Year, opts.Month) {
				continue
			}
			if math.Abs(p.Lat-lat) <= r && math.Abs(p.Lon-lon) <= r {
				matched = append(matched, p)
			}
		}
		if len(matched) > 0 {
			return FilterResult{Points: matched, RadiusDeg: r}
		}
	}

	// Nearest-K fallback. Prefer time-matching points; when the time filter
	// itself is what emptied the search, widen to the full set rather than
	// return nothing.
	candidates := points
	if opts.Year != 0 || opts.Month != 0 {
		timed := make([]domain.Observation, 0, len(points))
		for _, p := range points {
			if matchesTime(p, opts.Year, opts.Month) {
				timed = append(timed, p)
			}
		}
		if len(timed) > 0 {
			candidates = timed
		}
	}

	return FilterResult{Points: nearestK(candidates, lat, lon, k), NearestFallback: true}
}

func matchesTime(p domain.Observation, year, month int) bool {
	if year != 0 && p.Year != year {
		return false
	}
	if month != 0 && p.Month != month {
		return false
	}
	return true
}

// nearestK returns the k points closest to (lat, lon) by degree distance,
// or all points when fewer than k exist.
func nearestK(points []domain.Observation, lat, lon float64, k int) []domain.Observation {
	ranked := make([]domain.Observation, len(points))
	copy(ranked, points)

	slices.SortStableFunc(ranked, func(a, b domain.Observation) int {
		da := degreeDistance(a.Lat, a.Lon, lat, lon)
		db := degreeDistance(b.Lat, b.Lon, lat, lon)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func degreeDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Hypot(lat1-lat2, lon1-lon2)
}

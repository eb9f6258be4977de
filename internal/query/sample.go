package query

import (
	"math"
	"slices"

	"github.com/floralens/bloom-data-service/internal/domain"
)

// LODTier is one camera-distance band with its point budget and the marker
// size the frontend should draw at that distance.
type LODTier struct {
	MaxDistance float64 `json:"max_distance"`
	MaxPoints   int     `json:"max_points"`
	MarkerSize  float64 `json:"marker_size"`
}

// DefaultTiers are the four rendering budgets, nearest camera first.
var DefaultTiers = []LODTier{
	{MaxDistance: 1.5, MaxPoints: 8000, MarkerSize: 0.8},
	{MaxDistance: 3.0, MaxPoints: 5000, MarkerSize: 1.2},
	{MaxDistance: 6.0, MaxPoints: 2500, MarkerSize: 2.0},
	{MaxDistance: math.Inf(1), MaxPoints: 1200, MarkerSize: 3.0},
}

// TierFor selects the tier whose distance band contains cameraDistance.
func TierFor(cameraDistance float64) LODTier {
	for _, t := range DefaultTiers {
		if cameraDistance <= t.MaxDistance {
			return t
		}
	}
	return DefaultTiers[len(DefaultTiers)-1]
}

// Priority scores a point for sampling: bloom stage dominates, NDVI breaks
// ties within a stage.
func Priority(o domain.Observation) float64 {
	return float64(o.BloomStage)*1000 + o.NDVI*100
}

// Sample reduces points to at most budget entries. The top 70% of the budget
// is taken by descending priority; the remaining 30% is filled with every
// third point of the leftover, a deterministic stride rather than a random
// draw so identical queries return identical point sets.
func Sample(points []domain.Observation, budget int) []domain.Observation {
	if budget <= 0 {
		return nil
	}
	if len(points) <= budget {
		return points
	}

	ranked := make([]domain.Observation, len(points))
	copy(ranked, points)
	slices.SortStableFunc(ranked, func(a, b domain.Observation) int {
		pa, pb := Priority(a), Priority(b)
		switch {
		case pa > pb:
			return -1
		case pa < pb:
			return 1
		default:
			return 0
		}
	})

	keep := budget * 70 / 100
	if keep > len(ranked) {
		keep = len(ranked)
	}
	sampled := make([]domain.Observation, 0, budget)
	sampled = append(sampled, ranked[:keep]...)

	// Stride through the remainder for the tail of the budget.
	remainder := ranked[keep:]
	for i := 0; i < len(remainder) && len(sampled) < budget; i += 3 {
		sampled = append(sampled, remainder[i])
	}

	// The stride can run out before the budget is met; top up in priority
	// order with points the stride skipped.
	for i := 0; i < len(remainder) && len(sampled) < budget; i++ {
		if i%3 != 0 {
			sampled = append(sampled, remainder[i])
		}
	}

	return sampled
}

package query

import (
	"slices"

	"github.com/floralens/bloom-data-service/internal/domain"
)

// Aggregate buckets observations by (year, month) and computes per-bucket
// arithmetic means of NDVI, temperature, VPD, and precipitation. Buckets are
// emitted in chronological order. Months with no observations simply do not
// appear; no smoothing or gap-filling.
func Aggregate(points []domain.Observation) []domain.TimeSeriesBucket {
	type sums struct {
		ndvi, temperature, vpd, precipitation float64
		count                                 int
	}

	buckets := make(map[[2]int]*sums)
	for _, p := range points {
		key := [2]int{p.Year, p.Month}
		s, ok := buckets[key]
		if !ok {
			s = &sums{}
			buckets[key] = s
		}
		s.ndvi += p.NDVI
		s.temperature += p.Temperature
		s.vpd += p.VPD
		s.precipitation += p.Precipitation
		s.count++
	}

	series := make([]domain.TimeSeriesBucket, 0, len(buckets))
	for key, s := range buckets {
		n := float64(s.count)
		series = append(series, domain.TimeSeriesBucket{
			Year:              key[0],
			Month:             key[1],
			Date:              domain.BucketDate(key[0], key[1]),
			MeanNDVI:          s.ndvi / n,
			MeanTemperature:   s.temperature / n,
			MeanVPD:           s.vpd / n,
			MeanPrecipitation: s.precipitation / n,
			Count:             s.count,
		})
	}

	slices.SortFunc(series, func(a, b domain.TimeSeriesBucket) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Month - b.Month
	})

	return series
}

package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralens/bloom-data-service/internal/domain"
)

func TestAggregate(t *testing.T) {
	t.Run("per-bucket means", func(t *testing.T) {
		points := []domain.Observation{
			{Lat: 40, Lon: -75, Year: 2020, Month: 4, NDVI: 0.65, Temperature: 10, VPD: 0.6, Precipitation: 80},
			{Lat: 40.1, Lon: -75.1, Year: 2020, Month: 4, NDVI: 0.55, Temperature: 14, VPD: 1.0, Precipitation: 100},
		}

		series := Aggregate(points)

		require.Len(t, series, 1)
		want := domain.TimeSeriesBucket{
			Year:              2020,
			Month:             4,
			Date:              "2020-04",
			MeanNDVI:          0.6,
			MeanTemperature:   12,
			MeanVPD:           0.8,
			MeanPrecipitation: 90,
			Count:             2,
		}
		if diff := cmp.Diff(want, series[0]); diff != "" {
			t.Errorf("bucket mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("chronological order", func(t *testing.T) {
		points := []domain.Observation{
			{Year: 2021, Month: 1, NDVI: 0.1},
			{Year: 2020, Month: 12, NDVI: 0.2},
			{Year: 2020, Month: 3, NDVI: 0.3},
			{Year: 2021, Month: 1, NDVI: 0.5},
			{Year: 2019, Month: 6, NDVI: 0.4},
		}

		series := Aggregate(points)

		require.Len(t, series, 4)
		for i := 1; i < len(series); i++ {
			prev, cur := series[i-1], series[i]
			ordered := prev.Year < cur.Year || (prev.Year == cur.Year && prev.Month <= cur.Month)
			assert.True(t, ordered, "bucket %d (%s) out of order after %s", i, cur.Date, prev.Date)
		}
	})

	t.Run("absent months produce no buckets", func(t *testing.T) {
		points := []domain.Observation{
			{Year: 2020, Month: 1, NDVI: 0.3},
			{Year: 2020, Month: 5, NDVI: 0.7},
		}

		series := Aggregate(points)

		require.Len(t, series, 2)
		assert.Equal(t, "2020-01", series[0].Date)
		assert.Equal(t, "2020-05", series[1].Date)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil))
	})
}

// Mirrors the canonical scenario: three valid points, filter at 0.5° around
// (40, -75), then aggregate the two survivors.
func TestFilterThenAggregate(t *testing.T) {
	points := []domain.Observation{
		{Lat: 40, Lon: -75, Year: 2020, Month: 4, NDVI: 0.65, BloomStage: 2},
		{Lat: 40.1, Lon: -75.1, Year: 2020, Month: 4, NDVI: 0.55, BloomStage: 1},
		{Lat: 10, Lon: 10, Year: 2020, Month: 4, NDVI: 0.2, BloomStage: 0},
	}

	res := Near(points, 40, -75, FilterOptions{Radii: []float64{0.5}})
	require.Len(t, res.Points, 2)

	series := Aggregate(res.Points)
	require.Len(t, series, 1)
	assert.InDelta(t, 0.60, series[0].MeanNDVI, 1e-9)
	assert.Equal(t, 2, series[0].Count)
}

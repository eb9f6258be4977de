package ingest

import (
	"math"

	"github.com/floralens/bloom-data-service/internal/domain"
)

// Synthetic generates a small grid of plausible bloom observations over the
// eastern United States for the given year's spring months. It is the last
// stage of the fallback chain: deterministic, always non-empty, and obviously
// coarse so a stale real dataset is never mistaken for it.
func Synthetic(year int) ([]domain.Observation, Report) {
	report := newReport("synthetic")

	observations := make([]domain.Observation, 0, 144)
	for lat := 34.0; lat <= 44.0; lat += 2.0 {
		for lon := -82.0; lon <= -72.0; lon += 2.0 {
			for month := 3; month <= 6; month++ {
				obs := syntheticObservation(lat, lon, year, month)
				report.observe(obs)
				observations = append(observations, obs)
			}
		}
	}

	return observations, report
}

func syntheticObservation(lat, lon float64, year, month int) domain.Observation {
	// Greenness ramps through spring and peaks at mid latitudes.
	season := float64(month-3) / 3.0
	ndvi := 0.30 + 0.35*season - 0.015*math.Abs(lat-39)
	if ndvi < 0 {
		ndvi = 0
	}

	stage := domain.StageNone
	switch {
	case ndvi >= 0.55:
		stage = domain.StagePeak
	case ndvi >= 0.40:
		stage = domain.StageEmerging
	}

	temperature := 16.0 - 0.5*(lat-34) + 2.5*float64(month-3)

	return domain.Observation{
		ID:             domain.ObservationID(lat, lon, year, month),
		Lat:            lat,
		Lon:            lon,
		Temperature:    temperature,
		Precipitation:  70 + 15*season,
		NDVI:           ndvi,
		BloomStage:     stage,
		Month:          month,
		Year:           year,
		SolarRadiation: 150 + 60*season,
		SoilMoisture:   0.32 - 0.06*season,
		VPD:            0.5 + 0.5*season,
		DiurnalRange:   9 + 2*season,
		AGDD:           math.Max(0, temperature) * 30 * float64(month-2),
		Source:         "synthetic",
	}
}

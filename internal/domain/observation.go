package domain

import (
	"context"
	"fmt"
	"time"
)

// Bloom stage labels attached to each observation.
const (
	StageNone     = 0
	StageEmerging = 1
	StagePeak     = 2
)

// Observation is one monthly bloom/climate measurement at a location.
// Immutable once parsed; owned by whichever dataset snapshot holds it.
type Observation struct {
	ID            string  `json:"id"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	NDVI          float64 `json:"ndvi"`
	BloomStage    int     `json:"bloom_stage"`
	Month         int     `json:"month"`
	Year          int     `json:"year"`

	SolarRadiation float64 `json:"solar_radiation,omitempty"`
	SoilMoisture   float64 `json:"soil_moisture,omitempty"`
	VPD            float64 `json:"vpd,omitempty"`
	DiurnalRange   float64 `json:"dtr,omitempty"`
	AGDD           float64 `json:"agdd,omitempty"`

	// Source records how the observation entered the dataset:
	// "csv", "stream", or "synthetic".
	Source      string    `json:"source,omitempty"`
	ProcessedAt time.Time `json:"processed_at,omitzero"`
}

// HistoricalPoint is the narrow projection served to the legacy overlay grid.
type HistoricalPoint struct {
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	NDVI          float64 `json:"ndvi"`
	Year          int     `json:"year"`
	Month         int     `json:"month"`
}

// Historical returns the overlay-grid projection of an observation.
func (o Observation) Historical() HistoricalPoint {
	return HistoricalPoint{
		Lat:           o.Lat,
		Lon:           o.Lon,
		Temperature:   o.Temperature,
		Precipitation: o.Precipitation,
		NDVI:          o.NDVI,
		Year:          o.Year,
		Month:         o.Month,
	}
}

// TimeSeriesBucket is one (year, month) aggregate for the history chart.
type TimeSeriesBucket struct {
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	Date              string  `json:"date"` // "2020-04"
	MeanNDVI          float64 `json:"mean_ndvi"`
	MeanTemperature   float64 `json:"mean_temperature"`
	MeanVPD           float64 `json:"mean_vpd"`
	MeanPrecipitation float64 `json:"mean_precipitation"`
	Count             int     `json:"count"`
}

// RawObservationRecord is the flat JSON structure published by the stream
// collector. All fields arrive as strings, mirroring the CSV columns.
type RawObservationRecord struct {
	Lat            string `json:"latitude"`
	Lon            string `json:"longitude"`
	Temperature    string `json:"mean_temperature"`
	Precipitation  string `json:"precipitation"`
	NDVI           string `json:"ndvi"`
	BloomStage     string `json:"bloom_stage"`
	Month          string `json:"month"`
	Year           string `json:"year"`
	SolarRadiation string `json:"solar_radiation"`
	SoilMoisture   string `json:"soil_moisture"`
	VPD            string `json:"vpd"`
	DiurnalRange   string `json:"dtr"`
	AGDD           string `json:"agdd"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ValidCoordinate reports whether (lat, lon) lies inside geographic bounds.
// NaN fails both comparisons, so non-numeric coordinates are rejected too.
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ClampStage forces a bloom stage label into {StageNone, StageEmerging, StagePeak}.
func ClampStage(stage int) int {
	if stage < StageNone {
		return StageNone
	}
	if stage > StagePeak {
		return StagePeak
	}
	return stage
}

// BucketDate formats a (year, month) pair the way the chart expects.
func BucketDate(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

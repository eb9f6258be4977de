package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCoordinate marks a record whose latitude/longitude fall outside
// geographic bounds or fail to parse.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ParseRawEvent deserializes a RawEvent's value into an Observation.
// It expects the flat CSV-style JSON produced by the stream collector.
func ParseRawEvent(raw RawEvent) (Observation, error) {
	var rec RawObservationRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("parse raw event: %w", err)
	}

	lat, errLat := parseCoordinate(rec.Lat)
	lon, errLon := parseCoordinate(rec.Lon)
	if errLat != nil || errLon != nil || !ValidCoordinate(lat, lon) {
		return Observation{}, fmt.Errorf("%w: lat=%q lon=%q", ErrInvalidCoordinate, rec.Lat, rec.Lon)
	}

	year := parseIntOrZero(rec.Year)
	month := parseIntOrZero(rec.Month)
	if month < 1 || month > 12 {
		return Observation{}, fmt.Errorf("invalid month %q", rec.Month)
	}

	return Observation{
		ID:             ObservationID(lat, lon, year, month),
		Lat:            lat,
		Lon:            lon,
		Temperature:    parseFloatOrZero(rec.Temperature),
		Precipitation:  parseFloatOrZero(rec.Precipitation),
		NDVI:           parseFloatOrZero(rec.NDVI),
		BloomStage:     ClampStage(parseIntOrZero(rec.BloomStage)),
		Month:          month,
		Year:           year,
		SolarRadiation: parseFloatOrZero(rec.SolarRadiation),
		SoilMoisture:   parseFloatOrZero(rec.SoilMoisture),
		VPD:            parseFloatOrZero(rec.VPD),
		DiurnalRange:   parseFloatOrZero(rec.DiurnalRange),
		AGDD:           parseFloatOrZero(rec.AGDD),
		Source:         "stream",
		ProcessedAt:    clock.Now(),
	}, nil
}

// ObservationID produces a deterministic ID from an observation's key fields.
// Deterministic IDs make dataset appends idempotent: reprocessing the same
// stream message or CSV row produces the same ID.
func ObservationID(lat, lon float64, year, month int) string {
	input := fmt.Sprintf("%.4f|%.4f|%d|%d", lat, lon, year, month)
	hash := sha256.Sum256([]byte(input))
	return "obs-" + hex.EncodeToString(hash[:8])
}

// parseCoordinate parses a latitude or longitude field strictly: empty or
// non-numeric input is an error, not zero, so a garbled coordinate cannot
// masquerade as (0, 0).
func parseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty coordinate")
	}
	return strconv.ParseFloat(s, 64)
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseIntOrZero parses a string as an int, tolerating a decimal suffix
// ("2020.0" appears in some exports). Returns 0 on failure.
func parseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

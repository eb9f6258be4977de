// Package ingest parses the bloom observation CSV and owns the fetch
// fallback chain. Parsing never yields a partially-typed result: either the
// header contract holds and rows are individually validated, or the parse
// fails as a whole and the caller moves down the fallback chain.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/floralens/bloom-data-service/internal/domain"
)

// RequiredColumns is the header contract for the primary dataset. Column
// order is free and extra columns are ignored, but every name listed here
// must be present.
var RequiredColumns = []string{
	"latitude",
	"longitude",
	"mean_temperature",
	"precipitation",
	"ndvi",
	"bloom_stage",
	"month",
	"year",
	"solar_radiation",
	"soil_moisture",
	"vpd",
	"dtr",
	"agdd",
}

// Parse failure modes. Row-level problems are dropped and counted instead.
var (
	ErrEmptyInput     = errors.New("empty input")
	ErrMissingColumns = errors.New("missing required columns")
)

// Drop reasons reported in Report.Dropped and on the rows_dropped metric.
const (
	DropColumnMismatch    = "column_mismatch"
	DropInvalidCoordinate = "invalid_coordinate"
)

// Report summarizes one ingestion run.
type Report struct {
	// Origin records which stage of the fallback chain produced the data:
	// "primary", "refetch", "best_effort", or "synthetic".
	Origin string `json:"origin"`

	Parsed  int            `json:"parsed"`
	Dropped map[string]int `json:"dropped,omitempty"`

	YearMin     int         `json:"year_min,omitempty"`
	YearMax     int         `json:"year_max,omitempty"`
	StageCounts map[int]int `json:"stage_counts,omitempty"`

	LatMin float64 `json:"lat_min,omitempty"`
	LatMax float64 `json:"lat_max,omitempty"`
	LonMin float64 `json:"lon_min,omitempty"`
	LonMax float64 `json:"lon_max,omitempty"`
}

func newReport(origin string) Report {
	return Report{
		Origin:      origin,
		Dropped:     make(map[string]int),
		StageCounts: make(map[int]int),
	}
}

func (r *Report) observe(o domain.Observation) {
	if r.Parsed == 0 {
		r.LatMin, r.LatMax = o.Lat, o.Lat
		r.LonMin, r.LonMax = o.Lon, o.Lon
	}
	r.Parsed++
	r.StageCounts[o.BloomStage]++
	if r.YearMin == 0 || o.Year < r.YearMin {
		r.YearMin = o.Year
	}
	if o.Year > r.YearMax {
		r.YearMax = o.Year
	}
	r.LatMin = math.Min(r.LatMin, o.Lat)
	r.LatMax = math.Max(r.LatMax, o.Lat)
	r.LonMin = math.Min(r.LonMin, o.Lon)
	r.LonMax = math.Max(r.LonMax, o.Lon)
}

// TotalDropped sums the per-reason drop counts.
func (r Report) TotalDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Parse reads delimited text (first line = header) into observations.
// The delimiter is detected from the header line (semicolon or comma).
// It fails fast when a required column is absent; individual rows are dropped
// on field-count mismatch or invalid coordinates.
func Parse(text string) ([]domain.Observation, Report, error) {
	report := newReport("primary")

	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, report, ErrEmptyInput
	}

	delim := detectDelimiter(lines[0])
	index, err := headerIndex(lines[0], delim)
	if err != nil {
		return nil, report, err
	}
	width := len(strings.Split(lines[0], delim))

	observations := make([]domain.Observation, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Split(line, delim)
		if len(fields) != width {
			report.Dropped[DropColumnMismatch]++
			continue
		}

		obs, ok := parseRow(fields, index)
		if !ok {
			report.Dropped[DropInvalidCoordinate]++
			continue
		}

		report.observe(obs)
		observations = append(observations, obs)
	}

	return observations, report, nil
}

// headerIndex maps required column names to field positions, verifying the
// header contract. Column names are matched case-insensitively.
func headerIndex(header, delim string) (map[string]int, error) {
	fields := strings.Split(header, delim)
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[strings.ToLower(strings.TrimSpace(f))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

// parseRow builds an observation from one CSV row. Returns false when the
// coordinates fail to parse or fall outside geographic bounds.
func parseRow(fields []string, index map[string]int) (domain.Observation, bool) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(fields[index["latitude"]]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(fields[index["longitude"]]), 64)
	if errLat != nil || errLon != nil || !domain.ValidCoordinate(lat, lon) {
		return domain.Observation{}, false
	}

	year := fieldInt(fields, index, "year")
	month := fieldInt(fields, index, "month")

	return domain.Observation{
		ID:             domain.ObservationID(lat, lon, year, month),
		Lat:            lat,
		Lon:            lon,
		Temperature:    fieldFloat(fields, index, "mean_temperature"),
		Precipitation:  fieldFloat(fields, index, "precipitation"),
		NDVI:           fieldFloat(fields, index, "ndvi"),
		BloomStage:     domain.ClampStage(fieldInt(fields, index, "bloom_stage")),
		Month:          month,
		Year:           year,
		SolarRadiation: fieldFloat(fields, index, "solar_radiation"),
		SoilMoisture:   fieldFloat(fields, index, "soil_moisture"),
		VPD:            fieldFloat(fields, index, "vpd"),
		DiurnalRange:   fieldFloat(fields, index, "dtr"),
		AGDD:           fieldFloat(fields, index, "agdd"),
		Source:         "csv",
	}, true
}

func fieldFloat(fields []string, index map[string]int, name string) float64 {
	i, ok := index[name]
	if !ok || i >= len(fields) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
	if err != nil {
		return 0
	}
	return v
}

func fieldInt(fields []string, index map[string]int, name string) int {
	return int(fieldFloat(fields, index, name))
}

// detectDelimiter picks semicolon when the header contains more semicolons
// than commas, otherwise comma.
func detectDelimiter(header string) string {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ";"
	}
	return ","
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

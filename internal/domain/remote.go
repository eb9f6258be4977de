package domain

import "context"

// ClimateSummary is a typed climate snapshot for one coordinate and month,
// sourced from the remote weather API when the local dataset cannot serve a
// location.
type ClimateSummary struct {
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	MeanTemperature float64 `json:"mean_temperature"`
	Precipitation   float64 `json:"precipitation"`
	Source          string  `json:"source"`
	Available       bool    `json:"available"`
}

// Place is one result of a place-name search.
type Place struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Importance  float64 `json:"importance"`
}

// WeatherProvider fetches a monthly climate summary for a coordinate.
type WeatherProvider interface {
	MonthlyClimate(ctx context.Context, lat, lon float64, year, month int) (ClimateSummary, error)
}

// PlaceSearcher resolves a free-text place query to candidate coordinates.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Package weather implements domain.WeatherProvider against an archive-style
// climate API. Responses are decoded into typed results at this boundary;
// upstream failures degrade to an unavailable summary instead of an error
// where the caller asked for best-effort data.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
)

// Client implements domain.WeatherProvider using the open-meteo archive API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a weather API client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// MonthlyClimate fetches daily climate data for the given month and reduces
// it to a single summary: mean of the daily mean temperatures and the total
// precipitation.
func (c *Client) MonthlyClimate(ctx context.Context, lat, lon float64, year, month int) (domain.ClimateSummary, error) {
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	end := fmt.Sprintf("%04d-%02d-%02d", year, month, daysInMonth(year, month))

	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {start},
		"end_date":   {end},
		"daily":      {"temperature_2m_mean,precipitation_sum"},
		"timezone":   {"UTC"},
	}

	summary := domain.ClimateSummary{
		Lat:    lat,
		Lon:    lon,
		Year:   year,
		Month:  month,
		Source: "remote",
	}

	began := time.Now()
	resp, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.RemoteAPIDuration.WithLabelValues("weather").Observe(time.Since(began).Seconds())
	if err != nil {
		c.metrics.RemoteRequests.WithLabelValues("weather", "error").Inc()
		return summary, err
	}

	temps := resp.Daily.Temperature
	precs := resp.Daily.Precipitation
	if len(temps) == 0 {
		c.metrics.RemoteRequests.WithLabelValues("weather", "empty").Inc()
		return summary, nil
	}

	var tempSum, precSum float64
	for _, v := range temps {
		tempSum += v
	}
	for _, v := range precs {
		precSum += v
	}

	summary.MeanTemperature = tempSum / float64(len(temps))
	summary.Precipitation = precSum
	summary.Available = true

	c.metrics.RemoteRequests.WithLabelValues("weather", "success").Inc()
	return summary, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (archiveResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return archiveResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return archiveResponse{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return archiveResponse{}, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var archive archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return archiveResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return archive, nil
}

func daysInMonth(year, month int) int {
	t := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

// Archive API response types.

type archiveResponse struct {
	Daily dailySeries `json:"daily"`
}

type dailySeries struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m_mean"`
	Precipitation []float64 `json:"precipitation_sum"`
}

// Package geocode implements domain.PlaceSearcher against a Nominatim-style
// search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
)

// Client implements domain.PlaceSearcher using a Nominatim-compatible API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a place-search client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Search resolves a free-text query to at most limit candidate places.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {strconv.Itoa(limit)},
	}

	began := time.Now()
	results, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.RemoteAPIDuration.WithLabelValues("geocode").Observe(time.Since(began).Seconds())
	if err != nil {
		c.metrics.RemoteRequests.WithLabelValues("geocode", "error").Inc()
		return nil, err
	}
	if len(results) == 0 {
		c.metrics.RemoteRequests.WithLabelValues("geocode", "empty").Inc()
		return nil, nil
	}

	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil || !domain.ValidCoordinate(lat, lon) {
			c.logger.Warn("dropping search result with bad coordinates",
				"lat", r.Lat, "lon", r.Lon, "name", r.Name)
			continue
		}
		places = append(places, domain.Place{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Importance:  r.Importance,
		})
	}

	c.metrics.RemoteRequests.WithLabelValues("geocode", "success").Inc()
	return places, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]searchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "bloom-data-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocode API error: status %d: %s", resp.StatusCode, body)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return results, nil
}

// Nominatim response types. Coordinates arrive as strings.

type searchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

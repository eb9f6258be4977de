package weather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_MonthlyClimate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "48.8566", r.URL.Query().Get("latitude"))
		assert.Equal(t, "2020-04-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2020-04-30", r.URL.Query().Get("end_date"))

		resp := archiveResponse{
			Daily: dailySeries{
				Time:          []string{"2020-04-01", "2020-04-02", "2020-04-03"},
				Temperature:   []float64{10.0, 12.0, 14.0},
				Precipitation: []float64{1.5, 0.0, 2.5},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	summary, err := c.MonthlyClimate(context.Background(), 48.8566, 2.3522, 2020, 4)
	require.NoError(t, err)

	assert.True(t, summary.Available)
	assert.InDelta(t, 12.0, summary.MeanTemperature, 1e-9)
	assert.InDelta(t, 4.0, summary.Precipitation, 1e-9)
	assert.Equal(t, "remote", summary.Source)
	assert.Equal(t, 2020, summary.Year)
	assert.Equal(t, 4, summary.Month)
}

func TestClient_MonthlyClimate_EmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(archiveResponse{}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	summary, err := c.MonthlyClimate(context.Background(), 10.0, 10.0, 2020, 2)
	require.NoError(t, err)
	assert.False(t, summary.Available)
	assert.Equal(t, "remote", summary.Source)
}

func TestClient_MonthlyClimate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"reason":"invalid coordinates"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.MonthlyClimate(context.Background(), 10.0, 10.0, 2020, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_MonthlyClimate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{
		httpClient: &http.Client{Timeout: 50 * time.Millisecond},
		baseURL:    srv.URL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, err := c.MonthlyClimate(context.Background(), 10.0, 10.0, 2020, 2)
	require.Error(t, err)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, daysInMonth(2020, 2))
	assert.Equal(t, 28, daysInMonth(2021, 2))
	assert.Equal(t, 31, daysInMonth(2021, 12))
	assert.Equal(t, 30, daysInMonth(2021, 4))
}

// --- cache decorator tests ---

type countingProvider struct {
	calls  int
	result domain.ClimateSummary
	err    error
}

func (m *countingProvider) MonthlyClimate(_ context.Context, _, _ float64, _, _ int) (domain.ClimateSummary, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedProvider_CacheHit(t *testing.T) {
	inner := &countingProvider{result: domain.ClimateSummary{MeanTemperature: 12.0, Available: true}}
	cached := NewCachedProvider(inner, 10, testMetrics())

	s1, err := cached.MonthlyClimate(context.Background(), 48.8566, 2.3522, 2020, 4)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, s1.MeanTemperature, 1e-9)

	_, err = cached.MonthlyClimate(context.Background(), 48.8566, 2.3522, 2020, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedProvider_DoesNotCacheUnavailable(t *testing.T) {
	inner := &countingProvider{result: domain.ClimateSummary{Available: false}}
	cached := NewCachedProvider(inner, 10, testMetrics())

	_, err := cached.MonthlyClimate(context.Background(), 10.0, 10.0, 2020, 2)
	require.NoError(t, err)
	_, err = cached.MonthlyClimate(context.Background(), 10.0, 10.0, 2020, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ErrorPassthrough(t *testing.T) {
	inner := &countingProvider{err: errors.New("upstream down")}
	cached := NewCachedProvider(inner, 10, testMetrics())

	_, err := cached.MonthlyClimate(context.Background(), 10.0, 10.0, 2020, 2)
	require.Error(t, err)
}

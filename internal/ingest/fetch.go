package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
)

// Loader fetches and parses the primary dataset. LoadDataset never returns
// an error: every failure moves one step down the fallback chain, so the
// caller always receives a typed (possibly synthetic) result.
type Loader struct {
	source     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
}

// NewLoader creates a dataset loader. Source may be a local file path or an
// http(s) URL; timeout applies per fetch attempt.
func NewLoader(source string, client *http.Client, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		source:     source,
		httpClient: client,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
	}
}

// SetClock swaps the loader's time source, used to pin the synthetic
// fallback's year in tests.
func (l *Loader) SetClock(c clockwork.Clock) {
	l.clock = c
}

// LoadDataset runs the fetch + parse fallback chain:
//
//  1. fetch and parse the primary source
//  2. refetch with a no-cache directive and parse again
//  3. best-effort parse of whatever text was last retrieved
//  4. synthetic grid of plausible values
//
// The result may be empty but is never nil, and the report's Origin names
// the stage that produced it.
func (l *Loader) LoadDataset(ctx context.Context) ([]domain.Observation, Report) {
	text, fetchErr := l.fetch(ctx, false)
	if fetchErr == nil {
		if obs, report, err := Parse(text); err == nil {
			l.recordAndLog(report)
			return obs, report
		} else {
			l.logger.Warn("primary parse failed", "source", l.source, "error", err)
		}
	} else {
		l.logger.Warn("primary fetch failed", "source", l.source, "error", fetchErr)
	}

	// Stage 2: refetch bypassing intermediary caches. A stale cached copy is
	// the most common cause of a truncated or malformed body.
	l.metrics.IngestFallbacks.WithLabelValues("refetch").Inc()
	if retry, err := l.fetch(ctx, true); err == nil {
		text = retry
		if obs, report, err := Parse(text); err == nil {
			report.Origin = "refetch"
			l.recordAndLog(report)
			return obs, report
		}
	}

	// Stage 3: salvage whatever rows can be read positionally.
	l.metrics.IngestFallbacks.WithLabelValues("best_effort").Inc()
	if obs, report := bestEffortParse(text); len(obs) > 0 {
		l.recordAndLog(report)
		return obs, report
	}

	// Stage 4: synthetic grid so the visualization always has something.
	l.metrics.IngestFallbacks.WithLabelValues("synthetic").Inc()
	obs, report := Synthetic(l.clock.Now().Year())
	l.recordAndLog(report)
	return obs, report
}

func (l *Loader) fetch(ctx context.Context, noCache bool) (string, error) {
	if !strings.HasPrefix(l.source, "http://") && !strings.HasPrefix(l.source, "https://") {
		data, err := os.ReadFile(l.source)
		if err != nil {
			return "", fmt.Errorf("read dataset file: %w", err)
		}
		return string(data), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return "", fmt.Errorf("create dataset request: %w", err)
	}
	if noCache {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch dataset: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read dataset body: %w", err)
	}
	return string(body), nil
}

func (l *Loader) recordAndLog(report Report) {
	l.metrics.RowsParsed.Add(float64(report.Parsed))
	for reason, n := range report.Dropped {
		l.metrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}

	l.logger.Info("dataset loaded",
		"origin", report.Origin,
		"parsed", report.Parsed,
		"dropped", report.TotalDropped(),
		"year_min", report.YearMin,
		"year_max", report.YearMax,
		"lat_range", fmt.Sprintf("[%.2f, %.2f]", report.LatMin, report.LatMax),
		"lon_range", fmt.Sprintf("[%.2f, %.2f]", report.LonMin, report.LonMax),
		"stages", report.StageCounts,
	)
}

// bestEffortParse reads rows positionally in the canonical column order,
// ignoring the header contract. Only rows whose first two fields are valid
// coordinates survive. Used when the primary parse has already failed, so
// silence on malformed rows is acceptable here.
func bestEffortParse(text string) ([]domain.Observation, Report) {
	report := newReport("best_effort")

	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, report
	}

	delim := detectDelimiter(lines[0])
	index := make(map[string]int, len(RequiredColumns))
	for i, col := range RequiredColumns {
		index[col] = i
	}

	observations := make([]domain.Observation, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, delim)
		if len(fields) < 2 {
			continue
		}
		obs, ok := parseRow(fields, index)
		if !ok {
			continue // header line lands here too
		}
		report.observe(obs)
		observations = append(observations, obs)
	}

	return observations, report
}

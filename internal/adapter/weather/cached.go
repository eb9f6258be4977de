package weather

import (
	"context"
	"fmt"

	"github.com/floralens/bloom-data-service/internal/cache"
	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
)

// CachedProvider wraps a WeatherProvider with an in-memory LRU cache.
type CachedProvider struct {
	inner   domain.WeatherProvider
	cache   *cache.LRU[domain.ClimateSummary]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a weather provider.
func NewCachedProvider(inner domain.WeatherProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New[domain.ClimateSummary](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) MonthlyClimate(ctx context.Context, lat, lon float64, year, month int) (domain.ClimateSummary, error) {
	key := fmt.Sprintf("%.4f|%.4f|%d|%d", lat, lon, year, month)
	if summary, ok := c.cache.Get(key); ok {
		c.metrics.RemoteCache.WithLabelValues("weather", "hit").Inc()
		return summary, nil
	}
	c.metrics.RemoteCache.WithLabelValues("weather", "miss").Inc()

	summary, err := c.inner.MonthlyClimate(ctx, lat, lon, year, month)
	if err != nil {
		return summary, err
	}
	// Only cache usable results so transient gaps can be retried.
	if summary.Available {
		c.cache.Put(key, summary)
	}
	return summary, nil
}

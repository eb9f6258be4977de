package geocode

import (
	"context"
	"fmt"
	"strings"

	"github.com/floralens/bloom-data-service/internal/cache"
	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
)

// CachedSearcher wraps a PlaceSearcher with an in-memory LRU cache.
type CachedSearcher struct {
	inner   domain.PlaceSearcher
	cache   *cache.LRU[[]domain.Place]
	metrics *observability.Metrics
}

// NewCachedSearcher creates a cache decorator around a place searcher.
func NewCachedSearcher(inner domain.PlaceSearcher, maxEntries int, metrics *observability.Metrics) *CachedSearcher {
	return &CachedSearcher{
		inner:   inner,
		cache:   cache.New[[]domain.Place](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	key := fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(query)), limit)
	if places, ok := c.cache.Get(key); ok {
		c.metrics.RemoteCache.WithLabelValues("geocode", "hit").Inc()
		return places, nil
	}
	c.metrics.RemoteCache.WithLabelValues("geocode", "miss").Inc()

	places, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient "not found" responses can be
	// retried.
	if len(places) > 0 {
		c.cache.Put(key, places)
	}
	return places, nil
}

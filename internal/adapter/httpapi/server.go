// Package httpapi serves the REST surface over the in-memory dataset:
// viewport point queries, time series, location detail, place search, the
// overlay grid, and the operational endpoints.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floralens/bloom-data-service/internal/dataset"
	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/observability"
	"github.com/floralens/bloom-data-service/internal/query"
)

const requestTimeout = 10 * time.Second

// Server bundles the router and its dependencies.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	store           *dataset.Store
	weather         domain.WeatherProvider
	search          domain.PlaceSearcher
	region          query.Region
	logger          *slog.Logger
	metrics         *observability.Metrics
	engine          *gin.Engine
}

// New constructs a server with routes and middleware.
func New(addr string, shutdownTimeout time.Duration, store *dataset.Store, weather domain.WeatherProvider, search domain.PlaceSearcher, region query.Region, logger *slog.Logger, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	s := &Server{
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		store:           store,
		weather:         weather,
		search:          search,
		region:          region,
		logger:          logger,
		metrics:         metrics,
		engine:          engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/readyz", s.handleReadiness)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.GET("/points", s.handlePoints)
	v1.GET("/timeseries", s.handleTimeSeries)
	v1.GET("/locations/detail", s.handleLocationDetail)
	v1.GET("/search", s.handleSearch)
	v1.GET("/grid", s.handleGrid)
	v1.GET("/stats", s.handleStats)
}

func (s *Server) handleReadiness(c *gin.Context) {
	if err := s.store.CheckReadiness(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "observations": s.store.Len()})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/umahmood/haversine"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/query"
)

// handlePoints serves the viewport query: a bounding box plus optional
// (year, month) filter, sampled down to the camera-distance tier's budget.
// GET /api/v1/points
func (s *Server) handlePoints(c *gin.Context) {
	bounds, err := parseBounds(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cameraDistance := math.Inf(1)
	if raw := c.Query("camera_distance"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera_distance"})
			return
		}
		cameraDistance = d
	}

	snapshot := s.store.Snapshot()
	filtered := make([]domain.Observation, 0, len(snapshot))
	for _, o := range snapshot {
		if !bounds.Contains(o.Lat, o.Lon) {
			continue
		}
		if year != 0 && o.Year != year {
			continue
		}
		if month != 0 && o.Month != month {
			continue
		}
		filtered = append(filtered, o)
	}

	tier := query.TierFor(cameraDistance)
	sampled := query.Sample(filtered, tier.MaxPoints)

	c.JSON(http.StatusOK, gin.H{
		"points":      sampled,
		"count":       len(sampled),
		"total":       len(filtered),
		"marker_size": tier.MarkerSize,
	})
}

// handleTimeSeries serves the history chart: expanding-radius search around
// a coordinate, aggregated into monthly buckets. The response reports the
// radius actually used so widening is visible to the caller.
// GET /api/v1/timeseries
func (s *Server) handleTimeSeries(c *gin.Context) {
	lat, lon, err := parseLatLon(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := query.Near(s.store.Snapshot(), lat, lon, query.FilterOptions{Year: year, Month: month})
	series := query.Aggregate(result.Points)

	c.JSON(http.StatusOK, gin.H{
		"series":           series,
		"count":            len(series),
		"radius_deg":       result.RadiusDeg,
		"nearest_fallback": result.NearestFallback,
	})
}

// handleLocationDetail serves a click on the globe: nearby observations with
// display distances when the coordinate is covered by the local dataset, a
// remote climate summary otherwise.
// GET /api/v1/locations/detail
func (s *Server) handleLocationDetail(c *gin.Context) {
	lat, lon, err := parseLatLon(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot := s.store.Snapshot()
	source := s.region.Resolve(lat, lon, snapshot)

	if source == query.SourceRemote {
		s.remoteDetail(c, lat, lon, year, month)
		return
	}

	result := query.Near(snapshot, lat, lon, query.FilterOptions{Year: year, Month: month})

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	here := haversine.Coord{Lat: lat, Lon: lon}
	nearby := make([]nearbyObservation, 0, limit)
	for _, o := range result.Points {
		if len(nearby) == limit {
			break
		}
		_, km := haversine.Distance(here, haversine.Coord{Lat: o.Lat, Lon: o.Lon})
		nearby = append(nearby, nearbyObservation{Observation: o, DistanceKm: km})
	}

	c.JSON(http.StatusOK, gin.H{
		"source":           query.SourceLocal,
		"observations":     nearby,
		"count":            len(nearby),
		"radius_deg":       result.RadiusDeg,
		"nearest_fallback": result.NearestFallback,
		"bloom":            summarizeBloom(result.Points),
	})
}

func (s *Server) remoteDetail(c *gin.Context, lat, lon float64, year, month int) {
	now := time.Now().UTC()
	if year == 0 {
		// The archive API lags the present; default to the last full year.
		year = now.Year() - 1
	}
	if month == 0 {
		month = int(now.Month())
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := s.weather.MonthlyClimate(ctx, lat, lon, year, month)
	if err != nil {
		s.logger.Warn("remote climate lookup failed", "error", err, "lat", lat, "lon", lon)
		c.JSON(upstreamStatus(err), gin.H{"error": "remote climate lookup failed", "source": query.SourceRemote})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  query.SourceRemote,
		"climate": summary,
	})
}

// handleSearch proxies the place-name search box.
// GET /api/v1/search
func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	places, err := s.search.Search(ctx, q, limit)
	if err != nil {
		s.logger.Warn("place search failed", "error", err, "query", q)
		c.JSON(upstreamStatus(err), gin.H{"error": "place search failed"})
		return
	}
	if places == nil {
		places = []domain.Place{}
	}

	c.JSON(http.StatusOK, gin.H{"results": places, "count": len(places)})
}

// handleGrid serves the legacy overlay grid: the historical projection of
// every observation matching the optional (year, month) filter.
// GET /api/v1/grid
func (s *Server) handleGrid(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot := s.store.Snapshot()
	points := make([]domain.HistoricalPoint, 0, len(snapshot))
	for _, o := range snapshot {
		if year != 0 && o.Year != year {
			continue
		}
		if month != 0 && o.Month != month {
			continue
		}
		points = append(points, o.Historical())
	}

	c.JSON(http.StatusOK, gin.H{"points": points, "count": len(points)})
}

// handleStats exposes the ingest report and dataset extents.
// GET /api/v1/stats
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"report":       s.store.Report(),
		"observations": s.store.Len(),
	})
}

// --- response shapes ---

type nearbyObservation struct {
	domain.Observation
	DistanceKm float64 `json:"distance_km"`
}

type bloomSummary struct {
	None     int     `json:"none"`
	Emerging int     `json:"emerging"`
	Peak     int     `json:"peak"`
	MeanNDVI float64 `json:"mean_ndvi"`
}

func summarizeBloom(points []domain.Observation) bloomSummary {
	var s bloomSummary
	var ndviSum float64
	for _, o := range points {
		switch o.BloomStage {
		case domain.StagePeak:
			s.Peak++
		case domain.StageEmerging:
			s.Emerging++
		default:
			s.None++
		}
		ndviSum += o.NDVI
	}
	if len(points) > 0 {
		s.MeanNDVI = ndviSum / float64(len(points))
	}
	return s
}

// --- parameter parsing ---

func parseLatLon(c *gin.Context) (float64, float64, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return 0, 0, errors.New("lat is required and must be a number")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return 0, 0, errors.New("lon is required and must be a number")
	}
	if !domain.ValidCoordinate(lat, lon) {
		return 0, 0, errors.New("lat/lon out of range")
	}
	return lat, lon, nil
}

func parseYearMonth(c *gin.Context) (int, int, error) {
	var year, month int
	if raw := c.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, errors.New("invalid year")
		}
		year = n
	}
	if raw := c.Query("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, errors.New("invalid month")
		}
		month = n
	}
	return year, month, nil
}

// parseBounds reads an optional bounding box; absent parameters default to
// the whole globe.
func parseBounds(c *gin.Context) (query.Rect, error) {
	bounds := query.Rect{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180}

	read := func(name string, dst *float64) error {
		raw := c.Query(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New("invalid " + name)
		}
		*dst = v
		return nil
	}

	for name, dst := range map[string]*float64{
		"min_lat": &bounds.LatMin,
		"max_lat": &bounds.LatMax,
		"min_lon": &bounds.LonMin,
		"max_lon": &bounds.LonMax,
	} {
		if err := read(name, dst); err != nil {
			return query.Rect{}, err
		}
	}

	if bounds.LatMin > bounds.LatMax || bounds.LonMin > bounds.LonMax {
		return query.Rect{}, errors.New("bounding box is inverted")
	}
	return bounds, nil
}

// upstreamStatus maps an upstream error to a gateway status: timeouts are
// 504, everything else 502.
func upstreamStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest, stream, and query paths.
type Metrics struct {
	RowsParsed      prometheus.Counter
	RowsDropped     *prometheus.CounterVec // labels: reason={column_mismatch,invalid_coordinate}
	IngestFallbacks *prometheus.CounterVec // labels: stage={refetch,best_effort,synthetic}
	DatasetSize     prometheus.Gauge

	// Live stream metrics.
	StreamConsumed prometheus.Counter
	StreamAccepted prometheus.Counter
	StreamRejected prometheus.Counter
	StreamRunning  prometheus.Gauge

	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Remote API metrics (weather + geocode adapters).
	RemoteRequests    *prometheus.CounterVec   // labels: api={weather,geocode}, outcome={success,error,empty}
	RemoteCache       *prometheus.CounterVec   // labels: api={weather,geocode}, result={hit,miss}
	RemoteAPIDuration *prometheus.HistogramVec // labels: api={weather,geocode}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "rows_parsed_total",
			Help:      "Total CSV rows parsed into valid observations.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "rows_dropped_total",
			Help:      "CSV rows dropped during ingestion, by reason.",
		}, []string{"reason"}),
		IngestFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "ingest_fallbacks_total",
			Help:      "Ingest fallback chain activations, by stage.",
		}, []string{"stage"}),
		DatasetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bloom",
			Name:      "dataset_size",
			Help:      "Observations currently held in the in-memory dataset.",
		}),
		StreamConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "stream_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		StreamAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "stream_accepted_total",
			Help:      "Stream messages validated and appended to the dataset.",
		}),
		StreamRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "stream_rejected_total",
			Help:      "Stream messages dropped as malformed or out of range.",
		}),
		StreamRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bloom",
			Name:      "stream_running",
			Help:      "1 when the live ingest loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloom",
			Name:      "stream_batch_size",
			Help:      "Number of messages per batch extracted from the source topic.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloom",
			Name:      "stream_batch_duration_seconds",
			Help:      "Duration of a complete batch extract-validate-append cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "remote_requests_total",
			Help:      "Remote API requests by api and outcome.",
		}, []string{"api", "outcome"}),
		RemoteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloom",
			Name:      "remote_cache_total",
			Help:      "Remote API cache lookups by api and result.",
		}, []string{"api", "result"}),
		RemoteAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bloom",
			Name:      "remote_api_duration_seconds",
			Help:      "Remote API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"api"}),
	}

	prometheus.MustRegister(
		m.RowsParsed,
		m.RowsDropped,
		m.IngestFallbacks,
		m.DatasetSize,
		m.StreamConsumed,
		m.StreamAccepted,
		m.StreamRejected,
		m.StreamRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RemoteRequests,
		m.RemoteCache,
		m.RemoteAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsParsed:              prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bloom", Name: "rows_parsed_total"}),
		RowsDropped:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bloom", Name: "rows_dropped_total"}, []string{"reason"}),
		IngestFallbacks:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bloom", Name: "ingest_fallbacks_total"}, []string{"stage"}),
		DatasetSize:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bloom", Name: "dataset_size"}),
		StreamConsumed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bloom", Name: "stream_consumed_total"}),
		StreamAccepted:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bloom", Name: "stream_accepted_total"}),
		StreamRejected:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bloom", Name: "stream_rejected_total"}),
		StreamRunning:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bloom", Name: "stream_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bloom", Name: "stream_batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bloom", Name: "stream_batch_duration_seconds"}),
		RemoteRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bloom", Name: "remote_requests_total"}, []string{"api", "outcome"}),
		RemoteCache:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bloom", Name: "remote_cache_total"}, []string{"api", "result"}),
		RemoteAPIDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "bloom", Name: "remote_api_duration_seconds"}, []string{"api"}),
	}
}

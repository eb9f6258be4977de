package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Primary dataset: a local path or an http(s) URL to the bloom CSV.
	DatasetSource       string
	DatasetFetchTimeout time.Duration

	// Live observation stream (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Remote climate point API used outside the local region.
	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	WeatherCacheSize int

	// Place-name search API backing /api/v1/search.
	GeocodeBaseURL   string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Region resolver: degrees a query may sit from the nearest local
	// observation before sourcing flips to the remote weather API.
	RegionDistanceDeg float64
}

// Load reads configuration from environment variables (optionally a .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("DATASET_FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := parsePositiveDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBoundedInt("BATCH_SIZE", 50, 1, 1000)
	if err != nil {
		return nil, err
	}

	regionDistance, err := parseDegrees("REGION_DISTANCE_DEG", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetSource:       envOrDefault("DATASET_SOURCE", "data/bloom_observations.csv"),
		DatasetFetchTimeout: fetchTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-bloom-observations"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "validated-bloom-observations"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "bloom-data-service"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		WeatherBaseURL:   envOrDefault("WEATHER_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		WeatherTimeout:   weatherTimeout,
		WeatherCacheSize: parseCacheSize("WEATHER_CACHE_SIZE"),

		GeocodeBaseURL:   envOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: parseCacheSize("GEOCODE_CACHE_SIZE"),

		RegionDistanceDeg: regionDistance,
	}

	if cfg.DatasetSource == "" {
		return nil, errors.New("DATASET_SOURCE is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SOURCE_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseBoundedInt(key string, fallback, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: %q (want %d-%d)", key, raw, min, max)
	}
	return n, nil
}

func parseDegrees(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v > 180 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func parseCacheSize(key string) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string
	FeedEnabled     bool
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Analyst backend REST API.
	AnalystAPIURL     string
	AnalystAPITimeout time.Duration
	CSRFToken         string

	// Nominatim reverse geocoding configuration.
	GeocodeEnabled   bool
	GeocodeURL       string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// ReportDBPath is the SQLite file backing the report store. Empty keeps
	// reports in memory only.
	ReportDBPath string

	PollSchedulePath string
	Schedule         Schedule
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("ANALYST_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	schedulePath := os.Getenv("POLL_SCHEDULE_PATH")
	schedule, err := LoadSchedule(schedulePath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hazard-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "coastal-hazard-dashboard"),
		FeedEnabled:        os.Getenv("KAFKA_FEED_ENABLED") == "true",
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		AnalystAPIURL:     sharedcfg.EnvOrDefault("ANALYST_API_URL", "http://localhost:8000"),
		AnalystAPITimeout: apiTimeout,
		CSRFToken:         os.Getenv("CSRF_TOKEN"),

		GeocodeEnabled:   os.Getenv("GEOCODE_ENABLED") == "true",
		GeocodeURL:       lookupOrDefault("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: parseCacheSize(),

		ReportDBPath:     sharedcfg.EnvOrDefault("REPORT_DB_PATH", "hazard-reports.db"),
		PollSchedulePath: schedulePath,
		Schedule:         schedule,
	}

	if cfg.FeedEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_FEED_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_FEED_ENABLED is true")
		}
	}
	if u, err := url.Parse(cfg.AnalystAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ANALYST_API_URL %q", cfg.AnalystAPIURL)
	}
	if cfg.GeocodeEnabled && cfg.GeocodeURL == "" {
		return nil, errors.New("GEOCODE_ENABLED is true but GEOCODE_URL is not set")
	}

	return cfg, nil
}

// lookupOrDefault returns def only when key is unset, so an explicitly empty
// value reaches validation.
func lookupOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

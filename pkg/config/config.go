package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL           = "https://fantasy.premierleague.com/api"
	DefaultRequestTimeout       = 30 * time.Second
	DefaultParallelWorkers      = 15
	DefaultSuperBatchFactor     = 5
	DefaultPacingDelay          = 1 * time.Second
	DefaultBatchSize            = 1000
	DefaultSmallBatchSize       = 100
	DefaultBulkInsertThreshold  = 100
	DefaultMaintenanceThreshold = 1000
)

// Config holds the full pipeline configuration. It is loaded once per process
// and treated as immutable for the run.
type Config struct {
	// Remote API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Concurrent fetch
	ParallelWorkers  int
	SuperBatchFactor int
	PacingDelay      time.Duration

	// Batch upsert
	BatchSize           int
	SmallBatchSize      int
	BulkInsertThreshold int

	// Post-bulk maintenance
	EnableMaintenance    bool
	MaintenanceThreshold int

	// Storage
	Postgres PostgresConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
}

// DSN returns the postgres connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func (c *PostgresConfig) Validate() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.Database == "" {
		return errors.New("postgres database is required")
	}
	if c.Username == "" {
		return errors.New("postgres username is required")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ParallelWorkers <= 0 {
		c.ParallelWorkers = DefaultParallelWorkers
	}
	if c.SuperBatchFactor <= 0 {
		c.SuperBatchFactor = DefaultSuperBatchFactor
	}
	if c.PacingDelay < 0 {
		return errors.New("pacing delay must not be negative")
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.SmallBatchSize <= 0 {
		c.SmallBatchSize = DefaultSmallBatchSize
	}
	if c.BulkInsertThreshold <= 0 {
		c.BulkInsertThreshold = DefaultBulkInsertThreshold
	}
	if c.MaintenanceThreshold <= 0 {
		c.MaintenanceThreshold = DefaultMaintenanceThreshold
	}
	return c.Postgres.Validate()
}

// Load reads configuration from the environment, preferring an optional .env
// file in the working directory. The returned Config has all defaults applied.
func Load() (Config, error) {
	// Best effort: a missing .env is fine, env vars still apply.
	_ = godotenv.Load(".env")

	cfg := Config{
		APIBaseURL:           os.Getenv("FPL_API_URL"),
		RequestTimeout:       envDuration("FPL_REQUEST_TIMEOUT", DefaultRequestTimeout),
		ParallelWorkers:      envInt("FPL_PARALLEL_WORKERS", DefaultParallelWorkers),
		SuperBatchFactor:     DefaultSuperBatchFactor,
		PacingDelay:          envDuration("FPL_PACING_DELAY", DefaultPacingDelay),
		BatchSize:            envInt("FPL_BATCH_SIZE", DefaultBatchSize),
		SmallBatchSize:       DefaultSmallBatchSize,
		BulkInsertThreshold:  envInt("FPL_BULK_INSERT_THRESHOLD", DefaultBulkInsertThreshold),
		EnableMaintenance:    envBool("FPL_ENABLE_MAINTENANCE", true),
		MaintenanceThreshold: envInt("FPL_MAINTENANCE_THRESHOLD", DefaultMaintenanceThreshold),
		Postgres: PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			Database: envDefault("POSTGRES_DB", "fpl_data"),
			Username: envDefault("POSTGRES_USER", "fpl_user"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate config: %w", err)
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	// Accept either a Go duration string or a bare number of seconds.
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

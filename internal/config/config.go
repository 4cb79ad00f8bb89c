// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the store DSN: sqlite://<path> for the single-file store or postgres://... for Postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AutoMigrate when true applies embedded migrations at server start, creating the store if absent.
	AutoMigrate bool `mapstructure:"AUTO_MIGRATE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is structured (JSON) or console.
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// SearchLimit is the hard cap on rows returned by /api/search.
	SearchLimit int `mapstructure:"SEARCH_LIMIT"`
	// StrictParsing when true rejects unparseable search filters and import dates with 400
	// instead of discarding them.
	StrictParsing bool `mapstructure:"STRICT_PARSING"`
	// MaxUploadBytes caps the multipart body accepted by /api/import_csv.
	MaxUploadBytes int64 `mapstructure:"MAX_UPLOAD_BYTES"`

	// Telemetry (optional). When the endpoint is empty, providers are created without exporters.
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. localhost:4317).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel resource service.name.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Import events (optional). When KafkaBrokers is empty, events go to OTel logs only.
	// KafkaBrokers is a comma-separated list of Kafka brokers (e.g. localhost:9092).
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic import events are written to.
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group cmd/worker joins.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is the Loki base URL (e.g. http://localhost:3100). Empty disables pushing to Loki.
	LokiURL string `mapstructure:"LOKI_URL"`
}

const maxSearchLimit = 5000

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "sqlite://audits.db")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "structured")
	v.SetDefault("SEARCH_LIMIT", 500)
	v.SetDefault("STRICT_PARSING", false)
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "inventory-audit")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "inventory.audit.imported")
	v.SetDefault("KAFKA_GROUP_ID", "inventory-audit-worker")
	v.SetDefault("LOKI_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = 500
	}
	if cfg.SearchLimit < 1 || cfg.SearchLimit > maxSearchLimit {
		return nil, errors.New("config: SEARCH_LIMIT must be between 1 and 5000")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "inventory-audit"
	}

	return &cfg, nil
}

// ShutdownTimeout is how long the server waits for in-flight requests on shutdown.
// Production gets a longer drain than local runs.
func (c *Config) ShutdownTimeout() time.Duration {
	if c != nil && c.Env == "production" {
		return 15 * time.Second
	}
	return 5 * time.Second
}

// IsPostgres reports whether DatabaseURL points at Postgres rather than the SQLite file store.
func (c *Config) IsPostgres() bool {
	if c == nil {
		return false
	}
	u := strings.ToLower(strings.TrimSpace(c.DatabaseURL))
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// Brokers splits KafkaBrokers into trimmed, non-empty addresses.
func (c *Config) Brokers() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

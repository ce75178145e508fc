// Package config provides configuration management for the paper retrieval service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the paper retrieval service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings for the warm store.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Tracing contains distributed tracing settings.
	Tracing TracingConfig `mapstructure:"tracing"`
	// Hunter contains waterfall coordinator settings.
	Hunter HunterConfig `mapstructure:"hunter"`
	// Cache contains in-memory result cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Kafka contains Kafka publisher settings for hunt lifecycle events.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// PDF contains PDF download and verification settings.
	PDF PDFConfig `mapstructure:"pdf"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	// Batch progress streams disable this per-request.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 50).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 10).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
	// RetentionPeriod is how long warm store entries are kept before the
	// purger removes them.
	RetentionPeriod time.Duration `mapstructure:"retention_period"`
	// PurgeInterval is how often the purger checks for expired entries.
	// Zero disables the purge loop.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	// Enabled controls whether the Postgres warm store is used at all.
	// When false the service runs with the in-memory cache only.
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `mapstructure:"endpoint"`
	// ServiceName is the service name for traces.
	ServiceName string `mapstructure:"service_name"`
	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// HunterConfig holds waterfall coordinator settings.
type HunterConfig struct {
	// CacheTTL is how long a cached result stays fresh.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// MaxRetries is the per-source retry budget for rate-limited and
	// transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBaseDelay is the base delay for exponential backoff.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `mapstructure:"retry_max_delay"`
	// BatchConcurrency is the maximum number of concurrent hunts in a batch.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

// CacheConfig holds in-memory result cache settings.
type CacheConfig struct {
	// TTL is the entry time-to-live.
	TTL time.Duration `mapstructure:"ttl"`
	// MaxEntries is the entry-count budget.
	MaxEntries int `mapstructure:"max_entries"`
	// MaxBytes is the payload byte budget.
	MaxBytes int64 `mapstructure:"max_bytes"`
	// CompressionThreshold is the minimum payload size for gzip compression.
	CompressionThreshold int `mapstructure:"compression_threshold"`
}

// KafkaConfig holds Kafka publisher settings.
type KafkaConfig struct {
	// Enabled controls whether event publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic to publish hunt events to.
	Topic string `mapstructure:"topic"`
	// WriteTimeout bounds a single async flush.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PDFConfig holds PDF download and verification settings.
type PDFConfig struct {
	// Timeout is the per-download timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxSizeBytes is the maximum accepted PDF size.
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	// UserAgent is sent on download requests.
	UserAgent string `mapstructure:"user_agent"`
	// AllowPrivateHosts permits downloads from private address ranges.
	// Only for local testing.
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

// PaperSourcesConfig holds configuration for all paper source APIs,
// listed in waterfall priority order.
type PaperSourcesConfig struct {
	// Scopus contains Scopus API settings.
	Scopus PaperSourceConfig `mapstructure:"scopus"`
	// ScienceDirect contains ScienceDirect API settings.
	ScienceDirect PaperSourceConfig `mapstructure:"sciencedirect"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar PaperSourceConfig `mapstructure:"semantic_scholar"`
	// OpenAlex contains OpenAlex API settings.
	OpenAlex PaperSourceConfig `mapstructure:"openalex"`
	// Unpaywall contains Unpaywall API settings.
	Unpaywall PaperSourceConfig `mapstructure:"unpaywall"`
	// CoreAPI contains CORE API settings.
	CoreAPI PaperSourceConfig `mapstructure:"coreapi"`
	// Crossref contains Crossref API settings.
	Crossref PaperSourceConfig `mapstructure:"crossref"`
	// DOAJ contains DOAJ API settings.
	DOAJ PaperSourceConfig `mapstructure:"doaj"`
	// ArXiv contains arXiv API settings.
	ArXiv PaperSourceConfig `mapstructure:"arxiv"`
	// BioRxiv contains bioRxiv API settings.
	BioRxiv PaperSourceConfig `mapstructure:"biorxiv"`
	// PubMed contains PubMed API settings.
	PubMed PaperSourceConfig `mapstructure:"pubmed"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g.
	// BIBLIOHUNT_PAPER_SOURCES_SCOPUS_API_KEY).
	APIKey string `mapstructure:"-"`
	// Email is the contact email for sources with polite pools
	// (Unpaywall, OpenAlex, Crossref).
	Email string `mapstructure:"email"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementCacheCapacity > 0 {
		params.Set("statement_cache_capacity", fmt.Sprintf("%d", c.StatementCacheCapacity))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("BIBLIOHUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-retrieval-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.PaperSources.Scopus.APIKey = os.Getenv("BIBLIOHUNT_PAPER_SOURCES_SCOPUS_API_KEY")
	cfg.PaperSources.ScienceDirect.APIKey = os.Getenv("BIBLIOHUNT_PAPER_SOURCES_SCIENCEDIRECT_API_KEY")
	cfg.PaperSources.SemanticScholar.APIKey = os.Getenv("BIBLIOHUNT_PAPER_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	cfg.PaperSources.CoreAPI.APIKey = os.Getenv("BIBLIOHUNT_PAPER_SOURCES_COREAPI_API_KEY")
	cfg.PaperSources.PubMed.APIKey = os.Getenv("BIBLIOHUNT_PAPER_SOURCES_PUBMED_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "paperhunt")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "paper_retrieval_service")
	// Default to "require" for production security. Use BIBLIOHUNT_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 50)
	v.SetDefault("database.min_conns", 10)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)
	v.SetDefault("database.statement_cache_capacity", 512)
	v.SetDefault("database.retention_period", "720h")
	v.SetDefault("database.purge_interval", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "paper-retrieval-service")
	v.SetDefault("tracing.sample_rate", 0.1)

	// Hunter defaults
	v.SetDefault("hunter.cache_ttl", "24h")
	v.SetDefault("hunter.max_retries", 2)
	v.SetDefault("hunter.retry_base_delay", "500ms")
	v.SetDefault("hunter.retry_max_delay", "5s")
	v.SetDefault("hunter.batch_concurrency", 5)

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.max_bytes", 524288000) // 500 MB
	v.SetDefault("cache.compression_threshold", 10240)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.paper_retrieval")
	v.SetDefault("kafka.write_timeout", "10s")

	// PDF defaults
	v.SetDefault("pdf.timeout", "60s")
	v.SetDefault("pdf.max_size_bytes", 104857600) // 100 MB
	v.SetDefault("pdf.user_agent", "Helixir-PaperRetrieval/1.0")
	v.SetDefault("pdf.allow_private_hosts", false)

	// Paper sources defaults - Scopus (requires API key)
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("paper_sources.scopus.enabled", true)
	v.SetDefault("paper_sources.scopus.base_url", "https://api.elsevier.com/content")
	v.SetDefault("paper_sources.scopus.timeout", "30s")
	v.SetDefault("paper_sources.scopus.rate_limit", 5.0)

	// Paper sources defaults - ScienceDirect (requires API key)
	v.SetDefault("paper_sources.sciencedirect.enabled", true)
	v.SetDefault("paper_sources.sciencedirect.base_url", "https://api.elsevier.com/content")
	v.SetDefault("paper_sources.sciencedirect.timeout", "30s")
	v.SetDefault("paper_sources.sciencedirect.rate_limit", 5.0)

	// Paper sources defaults - Semantic Scholar
	v.SetDefault("paper_sources.semantic_scholar.enabled", true)
	v.SetDefault("paper_sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("paper_sources.semantic_scholar.timeout", "30s")
	v.SetDefault("paper_sources.semantic_scholar.rate_limit", 1.0)

	// Paper sources defaults - OpenAlex
	v.SetDefault("paper_sources.openalex.enabled", true)
	v.SetDefault("paper_sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("paper_sources.openalex.timeout", "30s")
	v.SetDefault("paper_sources.openalex.rate_limit", 10.0)
	v.SetDefault("paper_sources.openalex.email", "")

	// Paper sources defaults - Unpaywall (requires contact email)
	v.SetDefault("paper_sources.unpaywall.enabled", true)
	v.SetDefault("paper_sources.unpaywall.base_url", "https://api.unpaywall.org/v2")
	v.SetDefault("paper_sources.unpaywall.timeout", "30s")
	v.SetDefault("paper_sources.unpaywall.rate_limit", 10.0)
	v.SetDefault("paper_sources.unpaywall.email", "")

	// Paper sources defaults - CORE (requires API key)
	v.SetDefault("paper_sources.coreapi.enabled", true)
	v.SetDefault("paper_sources.coreapi.base_url", "https://api.core.ac.uk/v3")
	v.SetDefault("paper_sources.coreapi.timeout", "30s")
	v.SetDefault("paper_sources.coreapi.rate_limit", 2.0)

	// Paper sources defaults - Crossref
	v.SetDefault("paper_sources.crossref.enabled", true)
	v.SetDefault("paper_sources.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("paper_sources.crossref.timeout", "30s")
	v.SetDefault("paper_sources.crossref.rate_limit", 10.0)
	v.SetDefault("paper_sources.crossref.email", "")

	// Paper sources defaults - DOAJ
	v.SetDefault("paper_sources.doaj.enabled", true)
	v.SetDefault("paper_sources.doaj.base_url", "https://doaj.org/api")
	v.SetDefault("paper_sources.doaj.timeout", "30s")
	v.SetDefault("paper_sources.doaj.rate_limit", 2.0)

	// Paper sources defaults - arXiv
	v.SetDefault("paper_sources.arxiv.enabled", true)
	v.SetDefault("paper_sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("paper_sources.arxiv.timeout", "30s")
	v.SetDefault("paper_sources.arxiv.rate_limit", 0.33) // arXiv asks for one request per 3 seconds

	// Paper sources defaults - bioRxiv
	v.SetDefault("paper_sources.biorxiv.enabled", true)
	v.SetDefault("paper_sources.biorxiv.base_url", "https://api.biorxiv.org")
	v.SetDefault("paper_sources.biorxiv.timeout", "30s")
	v.SetDefault("paper_sources.biorxiv.rate_limit", 5.0)

	// Paper sources defaults - PubMed (off by default, DOI coverage is
	// already handled by the sources above)
	v.SetDefault("paper_sources.pubmed.enabled", false)
	v.SetDefault("paper_sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("paper_sources.pubmed.timeout", "30s")
	v.SetDefault("paper_sources.pubmed.rate_limit", 3.0) // NCBI recommends max 3 req/sec without API key
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate database config only when the warm store is in use
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
		if c.Database.PurgeInterval > 0 && c.Database.RetentionPeriod <= 0 {
			return fmt.Errorf("database retention_period must be positive when purge_interval is set")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate tracing config
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0 and 1")
	}

	// Validate hunter config
	if c.Hunter.CacheTTL <= 0 {
		return fmt.Errorf("hunter cache_ttl must be positive")
	}
	if c.Hunter.MaxRetries < 0 {
		return fmt.Errorf("hunter max_retries must not be negative")
	}
	if c.Hunter.BatchConcurrency <= 0 {
		return fmt.Errorf("hunter batch_concurrency must be positive")
	}

	// Validate cache config
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max_entries must be positive")
	}
	if c.Cache.MaxBytes <= 0 {
		return fmt.Errorf("cache max_bytes must be positive")
	}

	// Validate Kafka config
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	return nil
}

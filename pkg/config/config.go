// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Upstream, Site, Redis, Kafka, Logging, Metrics, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Site      SiteConfig      `yaml:"site"`
	Settings  SettingsConfig  `yaml:"settings"`
	Related   RelatedConfig   `yaml:"related"`
	Feed      FeedConfig      `yaml:"feed"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Admin     AdminConfig     `yaml:"admin"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// UpstreamConfig describes the remote content API and how requests to it are
// bounded.
type UpstreamConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig toggles the optional circuit breaker in front of the upstream.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// SiteConfig holds the public site identity used in feeds and sitemaps.
type SiteConfig struct {
	URL             string `yaml:"url"`
	DefaultLanguage string `yaml:"defaultLanguage"`
}

// SettingsConfig controls the settings cache.
type SettingsConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// RelatedConfig controls related-post candidate selection.
type RelatedConfig struct {
	PoolSize int `yaml:"poolSize"`
	Limit    int `yaml:"limit"`
}

// FeedConfig controls feed generation.
type FeedConfig struct {
	RSSLimit int `yaml:"rssLimit"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ContentInvalidate string `yaml:"contentInvalidate"`
}

// RateLimitConfig bounds search requests per client.
type RateLimitConfig struct {
	SearchPerMinute int `yaml:"searchPerMinute"`
	Burst           int `yaml:"burst"`
}

// AdminConfig holds the shared token for operator endpoints. Prefer the
// BCD_ADMIN_TOKEN environment variable over committing it to a file.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.baseUrl is required")
	}
	if c.Upstream.Retries < 0 {
		return fmt.Errorf("upstream.retries must be >= 0, got %d", c.Upstream.Retries)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Site.URL == "" {
		return fmt.Errorf("site.url is required")
	}
	return nil
}

// Default returns a Config with the defaults used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api.sarlab.pro",
			Timeout: 10 * time.Second,
			Retries: 1,
			Backoff: 500 * time.Millisecond,
			Breaker: BreakerConfig{
				Enabled:          false,
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
			},
		},
		Site: SiteConfig{
			URL:             "https://sarlab.pro",
			DefaultLanguage: "tr",
		},
		Settings: SettingsConfig{
			TTL: 5 * time.Minute,
		},
		Related: RelatedConfig{
			PoolSize: 50,
			Limit:    3,
		},
		Feed: FeedConfig{
			RSSLimit: 20,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "blog-frontend",
			Topics: KafkaTopics{
				ContentInvalidate: "content-invalidate",
			},
		},
		RateLimit: RateLimitConfig{
			SearchPerMinute: 60,
			Burst:           10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads BCD_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BCD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BCD_UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("BCD_UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = d
		}
	}
	if v := os.Getenv("BCD_UPSTREAM_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upstream.Retries = n
		}
	}
	if v := os.Getenv("BCD_SITE_URL"); v != "" {
		cfg.Site.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("BCD_SITE_DEFAULT_LANGUAGE"); v != "" {
		cfg.Site.DefaultLanguage = v
	}
	if v := os.Getenv("BCD_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("BCD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BCD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BCD_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("BCD_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BCD_ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := os.Getenv("BCD_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BCD_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

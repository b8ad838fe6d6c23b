// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. One file configures both the
// front-end (serve) and the reference backend (api).
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Client   ClientConfig   `yaml:"client"`
	Query    QueryConfig    `yaml:"query"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the front-end HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RenderWait     time.Duration `yaml:"render_wait"` // 0 = pages wait for reads to finish
	AppName        string        `yaml:"app_name"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// APIConfig configures the reference backend.
type APIConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SessionSweep time.Duration `yaml:"session_sweep"` // interval for purging expired sessions
	JWTSecret    string        `yaml:"jwt_secret,omitempty"`
	SecureCookie bool          `yaml:"secure_cookie"`
	SeedFile     string        `yaml:"seed_file,omitempty"` // YAML news list loaded at startup
	FeedURL      string        `yaml:"feed_url,omitempty"`  // RSS/Atom feed imported at startup
	FeedLimit    int           `yaml:"feed_limit,omitempty"`
}

// Addr returns the listen address.
func (a APIConfig) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ClientConfig configures how the front-end reaches the backend.
type ClientConfig struct {
	BaseURL string            `yaml:"base_url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// QueryConfig configures the read cache.
type QueryConfig struct {
	// StaleTime is how long a read is served from cache. Zero keeps reads
	// until a mutation invalidates them.
	StaleTime time.Duration `yaml:"stale_time"`

	// GCTime drops entries nobody has read for this long. Zero keeps them.
	GCTime time.Duration `yaml:"gc_time"`
}

// DatabaseConfig configures backend storage.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /metrics endpoint
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML bytes. ${VAR} references are expanded
// and NEWSDEMO_* variables override file values.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	NEWSDEMO_SERVER_HOST        - Front-end host (default: 0.0.0.0)
//	NEWSDEMO_SERVER_PORT        - Front-end port (default: 3000)
//	NEWSDEMO_API_HOST           - Backend host (default: 0.0.0.0)
//	NEWSDEMO_API_PORT           - Backend port (default: 8080)
//	NEWSDEMO_API_JWT_SECRET     - Session signing secret (default: random per process)
//	NEWSDEMO_API_SESSION_TTL    - Session lifetime (default: 168h)
//	NEWSDEMO_API_SEED_FILE      - YAML news list loaded at startup
//	NEWSDEMO_API_FEED_URL       - RSS feed imported at startup
//	NEWSDEMO_CLIENT_BASE_URL    - Backend URL for the front-end (default: http://localhost:<api port>)
//	NEWSDEMO_CLIENT_TIMEOUT     - Backend request timeout (default: 10s)
//	NEWSDEMO_QUERY_STALE_TIME   - Read cache stale time (default: 0, until invalidated)
//	NEWSDEMO_DATABASE_DRIVER    - sqlite or memory (default: sqlite)
//	NEWSDEMO_DATABASE_DSN       - Database path (default: newsdemo.db)
//	NEWSDEMO_LOG_LEVEL          - debug, info, warn, error (default: info)
//	NEWSDEMO_LOG_FORMAT         - json or console (default: json)
//	NEWSDEMO_METRICS_ENABLED    - Enable /metrics (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise. Every setting has a default, so this never
// requires a file.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies NEWSDEMO_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Front-end server
	if v := os.Getenv("NEWSDEMO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	envInt("NEWSDEMO_SERVER_PORT", &cfg.Server.Port)
	envDuration("NEWSDEMO_SERVER_RENDER_WAIT", &cfg.Server.RenderWait)

	// Backend
	if v := os.Getenv("NEWSDEMO_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	envInt("NEWSDEMO_API_PORT", &cfg.API.Port)
	envDuration("NEWSDEMO_API_SESSION_TTL", &cfg.API.SessionTTL)
	if v := os.Getenv("NEWSDEMO_API_JWT_SECRET"); v != "" {
		cfg.API.JWTSecret = v
	}
	if v := os.Getenv("NEWSDEMO_API_SECURE_COOKIE"); v != "" {
		cfg.API.SecureCookie = parseBool(v)
	}
	if v := os.Getenv("NEWSDEMO_API_SEED_FILE"); v != "" {
		cfg.API.SeedFile = v
	}
	if v := os.Getenv("NEWSDEMO_API_FEED_URL"); v != "" {
		cfg.API.FeedURL = v
	}

	// Backend client
	if v := os.Getenv("NEWSDEMO_CLIENT_BASE_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	envDuration("NEWSDEMO_CLIENT_TIMEOUT", &cfg.Client.Timeout)

	// Read cache
	envDuration("NEWSDEMO_QUERY_STALE_TIME", &cfg.Query.StaleTime)
	envDuration("NEWSDEMO_QUERY_GC_TIME", &cfg.Query.GCTime)

	// Database
	if v := os.Getenv("NEWSDEMO_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("NEWSDEMO_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Logging
	if v := os.Getenv("NEWSDEMO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEWSDEMO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics
	if v := os.Getenv("NEWSDEMO_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.AppName == "" {
		cfg.Server.AppName = "News Demo"
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.SessionTTL == 0 {
		cfg.API.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.API.SessionSweep == 0 {
		cfg.API.SessionSweep = time.Hour
	}
	if cfg.API.FeedLimit == 0 {
		cfg.API.FeedLimit = 50
	}

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.API.Port)
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 10 * time.Second
	}
	if cfg.Query.GCTime == 0 {
		cfg.Query.GCTime = 5 * time.Minute
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "newsdemo.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if err := validPort("server.port", cfg.Server.Port); err != nil {
		return err
	}
	if err := validPort("api.port", cfg.API.Port); err != nil {
		return err
	}
	if cfg.Server.RenderWait < 0 {
		return fmt.Errorf("server.render_wait must not be negative")
	}
	if cfg.API.SessionTTL < time.Minute {
		return fmt.Errorf("api.session_ttl must be at least 1m, got %s", cfg.API.SessionTTL)
	}

	u, err := url.Parse(cfg.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("client.base_url must be an http(s) URL, got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative")
	}
	if cfg.Query.StaleTime < 0 {
		return fmt.Errorf("query.stale_time must not be negative")
	}
	if cfg.Query.GCTime < 0 {
		return fmt.Errorf("query.gc_time must not be negative")
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}

func validPort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", field, port)
	}
	return nil
}

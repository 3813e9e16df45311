// Package config provides centralized configuration management for the converter.
// Settings come from environment variables with defaults declared in struct tags,
// and are validated on startup so misconfiguration fails fast.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Batch    BatchConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining batches (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`

	// TrustedProxies lists proxy CIDRs or addresses, comma-separated, whose
	// X-Real-IP and X-Forwarded-For headers are believed. Empty trusts none.
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// SourceConfig holds settings for fetching the remote CSV.
type SourceConfig struct {
	// URL is the default CSV location used when a request names none.
	URL string `env:"SOURCE_URL" envAlt:"CSV_SOURCE_URL"`

	// Timeout bounds a single fetch attempt (default: 30s)
	Timeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`

	// RetryCount is how many times a failed fetch is retried (default: 2)
	RetryCount int `env:"SOURCE_RETRY_COUNT" default:"2"`

	// MaxSize is the largest CSV body accepted, in bytes (default: 100MB)
	MaxSize int64 `env:"SOURCE_MAX_SIZE" default:"104857600"`
}

// BatchConfig holds conversion settings.
type BatchConfig struct {
	// WorkDir is where per-batch input and output files are written.
	WorkDir string `env:"BATCH_WORK_DIR" default:"data"`

	// KeepFiles leaves the per-batch directory on disk after the response.
	KeepFiles bool `env:"BATCH_KEEP_FILES" default:"false"`

	// MaxConcurrent is the number of batches allowed to run at once (default: 4)
	MaxConcurrent int `env:"BATCH_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a batch slot (default: 30s)
	MaxWaitTime time.Duration `env:"BATCH_MAX_WAIT_TIME" default:"30s"`

	// MaxUploadSize is the largest multipart upload accepted, in bytes (default: 100MB)
	MaxUploadSize int64 `env:"BATCH_MAX_UPLOAD_SIZE" default:"104857600"`
}

// DatabaseConfig holds optional batch history storage settings.
// Storage is disabled when URL is empty.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Enabled reports whether batch history storage is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks that the configuration is usable.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	if c.Source.URL != "" && !strings.HasPrefix(c.Source.URL, "http://") && !strings.HasPrefix(c.Source.URL, "https://") {
		errs = append(errs, fmt.Sprintf("SOURCE_URL (%q) must be an http or https URL", c.Source.URL))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, "SOURCE_FETCH_TIMEOUT must be positive")
	}
	if c.Source.RetryCount < 0 {
		errs = append(errs, "SOURCE_RETRY_COUNT must be non-negative")
	}
	if c.Source.MaxSize <= 0 {
		errs = append(errs, "SOURCE_MAX_SIZE must be positive")
	}

	if strings.TrimSpace(c.Batch.WorkDir) == "" {
		errs = append(errs, "BATCH_WORK_DIR must not be empty")
	}
	if c.Batch.MaxConcurrent <= 0 {
		errs = append(errs, "BATCH_MAX_CONCURRENT must be positive")
	}
	if c.Batch.MaxWaitTime <= 0 {
		errs = append(errs, "BATCH_MAX_WAIT_TIME must be positive")
	}
	if c.Batch.MaxUploadSize <= 0 {
		errs = append(errs, "BATCH_MAX_UPLOAD_SIZE must be positive")
	}

	if c.Database.Enabled() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe for logs. The database URL is masked.
func (c *Config) String() string {
	db := "disabled"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Source: {URL: %q, Timeout: %s, RetryCount: %d}, "+
			"Batch: {WorkDir: %q, MaxConcurrent: %d, KeepFiles: %v}, Database: {URL: %s}, "+
			"Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), c.Source.URL, c.Source.Timeout, c.Source.RetryCount,
		c.Batch.WorkDir, c.Batch.MaxConcurrent, c.Batch.KeepFiles, db,
		c.Logging.Level, c.Logging.Format,
	)
}

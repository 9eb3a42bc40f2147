// Package config provides configuration management for the guides MCP
// server. It supports loading configuration from environment variables and a
// YAML config file, with proper precedence handling.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Transport type names accepted by the --transport flag and config file.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config holds all configuration settings for the guides MCP server.
type Config struct {
	// Server settings
	LogLevel  string // Log level: debug, info, warn, error (default: info)
	Transport string // Transport mode: http or stdio (default: http)
	Host      string // Listen host for the HTTP transport (default: 127.0.0.1)
	Port      int    // Listen port for the HTTP transport (default: 8787)

	// ExternalPrefix is the path prefix an outer proxy exposes this server
	// under; announced to SSE clients and registered as a route alias.
	ExternalPrefix string

	// Content settings
	GuidesDir   string // Directory holding the guide Markdown files (default: ./guides)
	ProjectRoot string // Root of the downstream project the scaffolding tools operate on

	// Fetch settings
	FetchTimeout  int // Timeout for fetching a documentation page in seconds (default: 10)
	MaxConcurrent int // Maximum concurrent outbound fetches (default: 4)
	CacheTTL      int // Page cache TTL in minutes (default: 10)
}

// NewConfig creates a Config with default values for all parameters, so the
// server can run without explicit configuration.
func NewConfig() *Config {
	return &Config{
		LogLevel:      "info",
		Transport:     TransportHTTP,
		Host:          "127.0.0.1",
		Port:          8787,
		GuidesDir:     "guides",
		ProjectRoot:   ".",
		FetchTimeout:  10,
		MaxConcurrent: 4,
		CacheTTL:      10,
	}
}

// Load loads configuration from environment variables over defaults.
func Load() (*Config, error) {
	cfg := NewConfig()
	loadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file, with environment
// variables as fallback and defaults as final fallback. Precedence:
// config file > environment variables > defaults.
func LoadFromFile(configPath string) (*Config, error) {
	cfg := NewConfig()
	loadFromEnv(cfg)

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("transport") {
		cfg.Transport = v.GetString("transport")
	}
	if v.IsSet("host") {
		cfg.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("external_prefix") {
		cfg.ExternalPrefix = v.GetString("external_prefix")
	}
	if v.IsSet("guides_dir") {
		cfg.GuidesDir = v.GetString("guides_dir")
	}
	if v.IsSet("project_root") {
		cfg.ProjectRoot = v.GetString("project_root")
	}
	if v.IsSet("fetch_timeout") {
		cfg.FetchTimeout = v.GetInt("fetch_timeout")
	}
	if v.IsSet("max_concurrent") {
		cfg.MaxConcurrent = v.GetInt("max_concurrent")
	}
	if v.IsSet("cache_ttl") {
		cfg.CacheTTL = v.GetInt("cache_ttl")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables into cfg.
func loadFromEnv(cfg *Config) {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("TRANSPORT"); val != "" {
		cfg.Transport = val
	}
	if val := os.Getenv("HOST"); val != "" {
		cfg.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			cfg.Port = intVal
		}
	}
	if val := os.Getenv("EXTERNAL_PREFIX"); val != "" {
		cfg.ExternalPrefix = val
	}
	if val := os.Getenv("GUIDES_DIR"); val != "" {
		cfg.GuidesDir = val
	}
	if val := os.Getenv("PROJECT_ROOT"); val != "" {
		cfg.ProjectRoot = val
	}
	if val := os.Getenv("FETCH_TIMEOUT"); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			cfg.FetchTimeout = intVal
		}
	}
	if val := os.Getenv("MAX_CONCURRENT"); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			cfg.MaxConcurrent = intVal
		}
	}
	if val := os.Getenv("CACHE_TTL"); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			cfg.CacheTTL = intVal
		}
	}
}

// Validate validates all configuration values and returns descriptive errors
// for any invalid settings.
func (c *Config) Validate() error {
	var errors []string

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel))
	}

	if c.Transport != TransportHTTP && c.Transport != TransportStdio {
		errors = append(errors, fmt.Sprintf("invalid transport: %s (must be one of: http, stdio)", c.Transport))
	}

	if c.Transport == TransportHTTP && (c.Port <= 0 || c.Port > 65535) {
		errors = append(errors, fmt.Sprintf("port must be in 1-65535 for the http transport, got: %d", c.Port))
	}

	if c.ExternalPrefix != "" && !strings.HasPrefix(c.ExternalPrefix, "/") {
		errors = append(errors, fmt.Sprintf("external_prefix must start with /, got: %s", c.ExternalPrefix))
	}

	if c.GuidesDir == "" {
		errors = append(errors, "guides_dir cannot be empty")
	}

	if c.FetchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("fetch_timeout must be positive, got: %d", c.FetchTimeout))
	}
	if c.MaxConcurrent <= 0 {
		errors = append(errors, fmt.Sprintf("max_concurrent must be positive, got: %d", c.MaxConcurrent))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("cache_ttl must be positive, got: %d", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

// GetTransportType returns the configured transport mode.
func (c *Config) GetTransportType() string {
	return c.Transport
}

// GetPort returns the configured HTTP port.
func (c *Config) GetPort() int {
	return c.Port
}

// GetTransportAddress returns the host:port listen address for the HTTP
// transport, or "" for stdio.
func (c *Config) GetTransportAddress() string {
	if c.Transport != TransportHTTP {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

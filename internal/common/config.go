// Package common provides shared utilities for indexboard
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for indexboard
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Clients     ClientsConfig  `toml:"clients"`
	Snapshot    SnapshotConfig `toml:"snapshot"`
	Display     DisplayConfig  `toml:"display"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"` // requests per second
}

// GetTimeout parses and returns the completion timeout
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// SnapshotConfig holds settings for the company snapshot provider
type SnapshotConfig struct {
	Delay string `toml:"delay"` // artificial latency of the simulated listing service
}

// GetDelay parses and returns the snapshot delay. Zero is allowed.
func (c *SnapshotConfig) GetDelay() time.Duration {
	d, err := time.ParseDuration(c.Delay)
	if err != nil || d < 0 {
		return 500 * time.Millisecond
	}
	return d
}

// DisplayConfig holds presentation settings
type DisplayConfig struct {
	Timezone string `toml:"timezone"`
	Currency string `toml:"currency"`
}

// Location resolves the display timezone, falling back to UTC when unknown.
func (c *DisplayConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model:     "gemini-2.0-flash",
				Timeout:   "30s",
				RateLimit: 2,
			},
		},
		Snapshot: SnapshotConfig{
			Delay: "500ms",
		},
		Display: DisplayConfig{
			Timezone: "Asia/Kolkata",
			Currency: "INR",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/indexboard.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration with priority: defaults -> files -> .env -> environment.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env never overrides variables already present in the process environment
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INDEXBOARD_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("INDEXBOARD_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("INDEXBOARD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("INDEXBOARD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if model := os.Getenv("INDEXBOARD_GEMINI_MODEL"); model != "" {
		config.Clients.Gemini.Model = model
	}

	if timeout := os.Getenv("INDEXBOARD_GEMINI_TIMEOUT"); timeout != "" {
		config.Clients.Gemini.Timeout = timeout
	}

	if tz := os.Getenv("INDEXBOARD_TIMEZONE"); tz != "" {
		config.Display.Timezone = tz
	}

	if delay := os.Getenv("INDEXBOARD_SNAPSHOT_DELAY"); delay != "" {
		config.Snapshot.Delay = delay
	}

	// API key: first non-empty wins
	for _, name := range []string{"GEMINI_API_KEY", "INDEXBOARD_GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.Gemini.APIKey = v
			break
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns a list of configuration problems that prevent startup.
// A missing Gemini key is not fatal; the movers section reports failures instead.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	if strings.TrimSpace(c.Clients.Gemini.Model) == "" {
		issues = append(issues, "clients.gemini.model is required")
	}
	if _, err := time.LoadLocation(c.Display.Timezone); c.Display.Timezone != "" && err != nil {
		issues = append(issues, fmt.Sprintf("display.timezone %q is not a known location", c.Display.Timezone))
	}
	return issues
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Fetch    FetchConfig    `toml:"fetch"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// BackendConfig locates the task and progress endpoints.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	TaskPath       string `toml:"task_path"`
	ProgressPath   string `toml:"progress_path"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout; zero disables it.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// FetchConfig bounds the batch fetch fan-out.
type FetchConfig struct {
	MaxConcurrency int     `toml:"max_concurrency"`
	RateLimit      float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings for the development backend.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains development backend HTTP settings.
type ServerConfig struct {
	Host  string `toml:"host"`
	Port  int    `toml:"port"`
	Token string `toml:"token"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the values the store and server cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url %q", ErrInvalidConfig, c.Backend.BaseURL)
	}
	if c.Backend.TaskPath == "" || c.Backend.ProgressPath == "" {
		return fmt.Errorf("%w: backend task_path and progress_path are required", ErrInvalidConfig)
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: backend.timeout_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Fetch.MaxConcurrency < 0 {
		return fmt.Errorf("%w: fetch.max_concurrency must not be negative", ErrInvalidConfig)
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("%w: fetch.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalidConfig, c.Server.Port)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

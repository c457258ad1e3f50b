package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Flow selects which backend contract the dashboard speaks when loading
// devices. The two contracts are never mixed.
type Flow string

const (
	// FlowSession logs in per config and scrapes with the cached session key.
	FlowSession Flow = "session"
	// FlowEmbedded reads component data embedded in each config record.
	FlowEmbedded Flow = "embedded"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`

	// ConfigPath is the path to the config file (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig represents the local dashboard listener
type ServerConfig struct {
	Port        int           `yaml:"port"`
	Host        string        `yaml:"host"`
	MetricsPath string        `yaml:"metrics_path"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	CORSOrigins []string      `yaml:"cors_origins,omitempty"`
}

// BackendConfig represents the device-management backend the dashboard calls
type BackendConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	Flow     Flow          `yaml:"flow"`
}

// UIConfig holds presentation tunables
type UIConfig struct {
	Title         string        `yaml:"title"`
	ToastDuration time.Duration `yaml:"toast_duration"`
	LogCapacity   int           `yaml:"log_capacity"`
}

// LogConfig controls process logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8090,
			Host:        "0.0.0.0",
			MetricsPath: "/metrics",
			SessionTTL:  2 * time.Hour,
		},
		Backend: BackendConfig{
			Endpoint: "http://127.0.0.1:8080",
			Timeout:  30 * time.Second,
			Flow:     FlowSession,
		},
		UI: UIConfig{
			Title:         "IC Platform",
			ToastDuration: 3 * time.Second,
			LogCapacity:   500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SearchPaths lists the locations Load tries, in order.
var SearchPaths = []string{
	"config.yaml",
	"configs/config.yaml",
	"/etc/icdashboard/config.yaml",
}

// Load loads configuration from the first config file found. An explicit
// path, when given, is the only location tried.
func Load(path string) (*Config, error) {
	paths := SearchPaths
	if path != "" {
		paths = []string{path}
	}

	var data []byte
	var err error
	var loadedPath string

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", loadedPath, err)
	}

	cfg.ConfigPath = loadedPath
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Backend.Flow {
	case FlowSession, FlowEmbedded:
	default:
		return fmt.Errorf("backend.flow: unknown flow %q", c.Backend.Flow)
	}
	if c.Backend.Endpoint == "" {
		return errors.New("backend.endpoint is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.UI.LogCapacity <= 0 {
		return fmt.Errorf("ui.log_capacity: must be positive, got %d", c.UI.LogCapacity)
	}
	return nil
}

// Addr is the listen address for the dashboard server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

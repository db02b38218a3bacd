package feedwatch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes one watcher. Zero values take the defaults below.
type Config struct {
	// SessionID identifies the session this watcher feeds, stamped on
	// every emitted batch.
	SessionID string `yaml:"session_id"`
	// ListWindow is the debounce window for list-tier churn
	// (item insertion, attribute changes). Default: 50ms.
	ListWindow time.Duration `yaml:"list_window"`
	// RootWindow is the debounce window for root-tier structural churn.
	// Default: 100ms.
	RootWindow time.Duration `yaml:"root_window"`
	// MaxBuffer flushes a tier immediately when this many records
	// accumulate before quiescence. Default: 1000.
	MaxBuffer int `yaml:"max_buffer"`
}

func (c *Config) defaults() {
	if c.ListWindow <= 0 {
		c.ListWindow = 50 * time.Millisecond
	}
	if c.RootWindow <= 0 {
		c.RootWindow = 100 * time.Millisecond
	}
	if c.MaxBuffer <= 0 {
		c.MaxBuffer = 1000
	}
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feedwatch: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("feedwatch: parse config: %w", err)
	}

	cfg.defaults()
	return &cfg, nil
}

// Package config loads settings for the fake storage from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/fake-localstorage/internal/logger"
)

const (
	// EnvURL overrides the URL reported by storage events outside a window
	EnvURL      = "TEST_URL"
	EnvLogLevel = "FAKESTORAGE_LOG_LEVEL"
)

// Config holds the settings
type Config struct {
	URL      string            `yaml:"url"`
	LogLevel string            `yaml:"log_level"`
	Seed     map[string]string `yaml:"seed"`
}

// Defaults returns the built-in settings
func Defaults() *Config {
	return &Config{
		LogLevel: string(logger.LevelWarn),
		Seed:     map[string]string{},
	}
}

// FromEnv returns the defaults overridden by the environment
func FromEnv() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// Load reads path (if not empty) over the defaults, then applies the
// environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		if cfg.Seed == nil {
			cfg.Seed = map[string]string{}
		}
	}

	cfg.applyEnv()

	if _, err := cfg.Level(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvURL); ok {
		c.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Level parses LogLevel
func (c *Config) Level() (logger.Level, error) {
	return logger.ParseLevel(c.LogLevel)
}

// SeedKeys returns the seed keys in sorted order, the order they are applied in
func (c *Config) SeedKeys() []string {
	keys := make([]string, 0, len(c.Seed))
	for k := range c.Seed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

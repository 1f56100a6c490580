package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"
)

type Config struct {
	Version     string   `yaml:"version"`
	BaseCatalog string   `yaml:"base-catalog,omitempty"`
	Overrides   string   `yaml:"overrides,omitempty"`
	Store       string   `yaml:"store,omitempty"`
	RunLog      string   `yaml:"run-log,omitempty"`
	Obtain      Obtain   `yaml:"obtain,omitempty"`
	Settings    Settings `yaml:"settings,omitempty"`
}

type Obtain struct {
	Timeout     string  `yaml:"timeout,omitempty"`
	Concurrency int     `yaml:"concurrency,omitempty"`
	Rate        float64 `yaml:"rate,omitempty"`
	Burst       int     `yaml:"burst,omitempty"`
}

type Settings struct {
	OutputFormat string `yaml:"output-format,omitempty"`
	Debug        bool   `yaml:"debug,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		Obtain: Obtain{
			Timeout:     "1m",
			Concurrency: 1,
		},
		Settings: Settings{
			OutputFormat: "table",
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// ObtainTimeout parses the configured obtain timeout. A zero duration means
// the runner default applies.
func (c *Config) ObtainTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Obtain.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid obtain timeout %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("obtain timeout must be positive, got %q", raw)
	}
	return d, nil
}

func (c *Config) ConcurrencyOrDefault() int {
	if c.Obtain.Concurrency < 1 {
		return 1
	}
	return c.Obtain.Concurrency
}

func (c *Config) StoreOrDefault() string {
	if c.Store != "" {
		return c.Store
	}
	return DefaultStorePath()
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if _, err := c.ObtainTimeout(); err != nil {
		return err
	}
	if c.Obtain.Concurrency < 0 {
		return fmt.Errorf("obtain concurrency cannot be negative, got %d", c.Obtain.Concurrency)
	}
	if c.Obtain.Rate < 0 {
		return fmt.Errorf("obtain rate cannot be negative, got %v", c.Obtain.Rate)
	}
	if c.Obtain.Burst < 0 {
		return fmt.Errorf("obtain burst cannot be negative, got %d", c.Obtain.Burst)
	}
	return nil
}

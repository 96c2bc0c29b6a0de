package config

import (
	"fmt"
	"os"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"zipcmp/internal/filter"
	"zipcmp/internal/hash"
)

// DefaultPath is read when no config file is given.
const DefaultPath = "zipcmp.yaml"

type Config struct {
	DetectPattern   string   `yaml:"detect_pattern"`
	IgnorePattern   string   `yaml:"ignore_pattern"`
	IgnoreGlobs     []string `yaml:"ignore_globs"`
	DetectFirstOnly bool     `yaml:"detect_first_only"`
	Digest          string   `yaml:"digest"`
	Workers         int      `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		IgnoreGlobs: []string{},
		Digest:      string(hash.Default),
		Workers:     1,
	}
}

// LoadConfig reads path. A missing file yields DefaultConfig. Keys absent
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse config YAML")
	}

	// Initialize IgnoreGlobs slice if nil (for explicit null)
	if cfg.IgnoreGlobs == nil {
		cfg.IgnoreGlobs = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the digest name, the worker count and every pattern.
func (c *Config) Validate() error {
	if _, err := hash.Parse(c.Digest); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.Newf(errors.CodeInvalidConfig, "workers must be at least 1, got %d", c.Workers)
	}
	if _, err := c.Filter(); err != nil {
		return err
	}
	return nil
}

// Filter compiles the pattern settings.
func (c *Config) Filter() (filter.Options, error) {
	return filter.Compile(c.DetectPattern, c.IgnorePattern, c.IgnoreGlobs, c.DetectFirstOnly)
}

// Algorithm returns the configured digest algorithm.
func (c *Config) Algorithm() (hash.Algorithm, error) {
	return hash.Parse(c.Digest)
}

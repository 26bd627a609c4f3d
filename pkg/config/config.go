// Package config loads kstree's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/kstree/pkg/schema"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the root YAML structure of the configuration file.
type Config struct {
	Color         string         `yaml:"color"`           // auto, always, never
	HexWidth      int            `yaml:"hex_width"`       // bytes per row in the hex pane
	MaxValueBytes int            `yaml:"max_value_bytes"` // bytes shown for binary values, 0 for all
	ExpandDepth   int            `yaml:"expand_depth"`    // levels expanded when the browser opens
	Overlay       schema.Overlay `yaml:"overlay,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Color:         ColorAuto,
		HexWidth:      16,
		MaxValueBytes: 32,
		ExpandDepth:   1,
	}
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kstree", "config.yaml"), nil
}

// Load reads the configuration at path over the defaults. An empty path means
// DefaultPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value is in range.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrInvalid, c.Color)
	}
	if c.HexWidth < 1 || c.HexWidth > 64 {
		return fmt.Errorf("%w: hex_width must be between 1 and 64, got %d", ErrInvalid, c.HexWidth)
	}
	if c.MaxValueBytes < 0 {
		return fmt.Errorf("%w: max_value_bytes must not be negative", ErrInvalid)
	}
	if c.ExpandDepth < 0 {
		return fmt.Errorf("%w: expand_depth must not be negative", ErrInvalid)
	}
	return nil
}

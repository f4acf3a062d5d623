// Package config provides a typed section/key configuration source over
// YAML. Lookups take caller-supplied defaults: a missing key yields the
// default with no error, while a key that is present with the wrong type is
// an error. The two conditions are never conflated.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sigmaquant/ruleback/pkg/errors"
)

// Config holds parsed configuration sections.
type Config struct {
	sections map[string]map[string]any
}

// New creates an empty configuration; every lookup returns its default.
func New() *Config {
	return &Config{sections: make(map[string]map[string]any)}
}

// LoadBytes parses YAML of the form section -> key -> value.
func LoadBytes(data []byte) (*Config, error) {
	sections := make(map[string]map[string]any)

	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoadFailed, "failed to parse configuration", err)
	}

	return &Config{sections: sections}, nil
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeConfigLoadFailed, err, "failed to read configuration file %s", path)
	}

	return LoadBytes(data)
}

// HasSection reports whether a section is present.
func (c *Config) HasSection(section string) bool {
	_, ok := c.sections[section]

	return ok
}

// Has reports whether section/key is present.
func (c *Config) Has(section, key string) bool {
	_, ok := c.lookup(section, key)

	return ok
}

func (c *Config) lookup(section, key string) (any, bool) {
	keys, ok := c.sections[section]
	if !ok {
		return nil, false
	}

	value, ok := keys[key]

	return value, ok
}

// GetString returns the string at section/key, or fallback if absent.
func (c *Config) GetString(section, key, fallback string) (string, error) {
	raw, ok := c.lookup(section, key)
	if !ok {
		return fallback, nil
	}

	value, ok := raw.(string)
	if !ok {
		return fallback, errors.Newf(errors.ErrCodeConfigInvalidValue,
			"%s.%s: expected string, got %T", section, key, raw)
	}

	return value, nil
}

// GetInt returns the integer at section/key, or fallback if absent.
func (c *Config) GetInt(section, key string, fallback int) (int, error) {
	raw, ok := c.lookup(section, key)
	if !ok {
		return fallback, nil
	}

	switch value := raw.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	default:
		return fallback, errors.Newf(errors.ErrCodeConfigInvalidValue,
			"%s.%s: expected integer, got %T", section, key, raw)
	}
}

// GetFloat returns the float at section/key, or fallback if absent. Integer
// values are accepted and widened.
func (c *Config) GetFloat(section, key string, fallback float64) (float64, error) {
	raw, ok := c.lookup(section, key)
	if !ok {
		return fallback, nil
	}

	switch value := raw.(type) {
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	default:
		return fallback, errors.Newf(errors.ErrCodeConfigInvalidValue,
			"%s.%s: expected number, got %T", section, key, raw)
	}
}

// GetBool returns the boolean at section/key, or fallback if absent.
func (c *Config) GetBool(section, key string, fallback bool) (bool, error) {
	raw, ok := c.lookup(section, key)
	if !ok {
		return fallback, nil
	}

	value, ok := raw.(bool)
	if !ok {
		return fallback, errors.Newf(errors.ErrCodeConfigInvalidValue,
			"%s.%s: expected boolean, got %T", section, key, raw)
	}

	return value, nil
}

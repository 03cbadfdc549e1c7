// Package config loads connection profiles for a Tarantool client from
// YAML, following the same struct-tag-plus-raw-field pattern the rest of
// this codebase's ambient configuration uses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of parameters needed to dial and authenticate a
// connection to a Tarantool instance.
type Config struct {
	Address  string  `yaml:"address"`
	Username string  `yaml:"username"`
	Password string  `yaml:"password"`
	Timeouts Timeouts `yaml:"timeouts"`
	Logging  Logging `yaml:"logging"`
}

// Timeouts holds the human-readable duration strings from YAML alongside
// their parsed counterparts, which are filled in by Validate.
type Timeouts struct {
	Connect    string        `yaml:"connect"`
	ConnectRaw time.Duration `yaml:"-"`

	DNS    string        `yaml:"dns"`
	DNSRaw time.Duration `yaml:"-"`

	Read    string        `yaml:"read"`
	ReadRaw time.Duration `yaml:"-"`

	Write    string        `yaml:"write"`
	WriteRaw time.Duration `yaml:"-"`
}

// Logging configures the ambient structured logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default timeouts applied when a YAML document leaves a field blank.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultDNSTimeout     = 5 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
)

// ErrConfig is returned when LoadConfig cannot read or parse a YAML config
// file, or one of its derived fields (a duration string, etc.) fails to
// parse. It is raised before any connection is attempted.
var ErrConfig = fmt.Errorf("config: invalid configuration")

// LoadConfig reads and decodes a YAML config file, then validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	return &cfg, nil
}

// Validate parses the human-readable duration fields into their Raw
// counterparts, applying defaults for anything left blank, and checks that
// Address is set.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", ErrConfig)
	}

	var err error
	if c.Timeouts.ConnectRaw, err = parseDurationOrDefault(c.Timeouts.Connect, DefaultConnectTimeout); err != nil {
		return fmt.Errorf("%w: timeouts.connect: %v", ErrConfig, err)
	}
	if c.Timeouts.DNSRaw, err = parseDurationOrDefault(c.Timeouts.DNS, DefaultDNSTimeout); err != nil {
		return fmt.Errorf("%w: timeouts.dns: %v", ErrConfig, err)
	}
	if c.Timeouts.ReadRaw, err = parseDurationOrDefault(c.Timeouts.Read, DefaultReadTimeout); err != nil {
		return fmt.Errorf("%w: timeouts.read: %v", ErrConfig, err)
	}
	if c.Timeouts.WriteRaw, err = parseDurationOrDefault(c.Timeouts.Write, DefaultWriteTimeout); err != nil {
		return fmt.Errorf("%w: timeouts.write: %v", ErrConfig, err)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

func parseDurationOrDefault(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}

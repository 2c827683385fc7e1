package sapmodel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/go-openapi/swag"
	"gopkg.in/yaml.v3"

	"github.com/tomblancdev/sapmodel-go/bridge"
)

// Config is the file form of the connector settings.
//
//	min_version: 22
//	calls_per_second: 50
//	burst: 5
//	default_units: {force: 4, length: 6, temperature: 2}
//	launch:
//	  start_ui: false
//	bridge:
//	  host: localhost:7420
//	  timeout: 30s
type Config struct {
	MinVersion          int            `yaml:"min_version" validate:"gte=0"`
	VersionRange        string         `yaml:"version_range"`
	DiscoverConcurrency int            `yaml:"discover_concurrency" validate:"gte=0,lte=64"`
	CallsPerSecond      float64        `yaml:"calls_per_second" validate:"gte=0"`
	Burst               int            `yaml:"burst" validate:"gte=0"`
	DefaultUnits        *Units         `yaml:"default_units"`
	Launch              LaunchConfig   `yaml:"launch"`
	Bridge              *bridge.Config `yaml:"bridge"`
}

// LaunchConfig holds defaults for [Connector.CreateNew].
type LaunchConfig struct {
	StartUI   bool   `yaml:"start_ui"`
	ModelPath string `yaml:"model_path"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates YAML config data. Unknown keys are
// rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config. Failures are [KindValidation] errors.
func (c *Config) Validate() error {
	cc := callContext("Config")
	if err := validateStruct(cc, c); err != nil {
		return err
	}
	if c.VersionRange != "" {
		if _, err := semver.NewConstraint(c.VersionRange); err != nil {
			return newError(KindValidation, cc, fmt.Sprintf("version_range %q", c.VersionRange), err)
		}
	}
	if c.DefaultUnits != nil {
		if err := c.DefaultUnits.validate(cc); err != nil {
			return err
		}
	}
	return nil
}

// Options converts the config into connector options.
func (c *Config) Options() []Option {
	opts := []Option{
		WithMinVersion(c.MinVersion),
		WithVersionRange(c.VersionRange),
		WithDiscoverConcurrency(c.DiscoverConcurrency),
	}
	if c.CallsPerSecond > 0 {
		opts = append(opts, WithCallRate(c.CallsPerSecond, c.Burst))
	}
	if c.DefaultUnits != nil {
		opts = append(opts, WithDefaultUnits(*c.DefaultUnits))
	}
	return opts
}

// LaunchOptions returns the configured launch defaults.
func (c *Config) LaunchOptions() LaunchOptions {
	opts := LaunchOptions{StartUI: c.Launch.StartUI}
	if c.Launch.ModelPath != "" {
		opts.ModelPath = swag.String(c.Launch.ModelPath)
	}
	return opts
}

// NewConnectorFromConfig creates a Connector that reaches the application
// through the automation bridge described by cfg.Bridge. opts are applied
// after the config-derived options.
func NewConnectorFromConfig(cfg *Config, opts ...Option) (*Connector, error) {
	if cfg == nil {
		return nil, validationError(callContext("Config"), "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Bridge == nil {
		return nil, validationError(callContext("Config"), "bridge section is required")
	}

	client, err := bridge.New(*cfg.Bridge)
	if err != nil {
		return nil, newError(KindValidation, callContext("Config"), "bridge", err)
	}
	return NewConnector(client, client, append(cfg.Options(), opts...)...), nil
}

package config

import (
	"fmt"
	"time"

	"github.com/kbukum/managed/logger"
	"github.com/kbukum/managed/validation"
)

// Config is the configuration of a process that owns a container.
// Projects extend it by embedding:
//
//	type AppConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Orders OrdersConfig `yaml:"orders" mapstructure:"orders"`
//	}
type Config struct {
	Name          string              `yaml:"name" mapstructure:"name" validate:"required,identifier"`
	Environment   string              `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version       string              `yaml:"version" mapstructure:"version"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Container     ContainerConfig     `yaml:"container" mapstructure:"container"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ContainerConfig configures the dependency container.
type ContainerConfig struct {
	// DefaultScope applies when a registration does not name one.
	DefaultScope string `yaml:"default_scope" mapstructure:"default_scope" validate:"oneof=singleton transient factory"`
	// Strict plans every binding at build time.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	Tracing         bool          `yaml:"tracing" mapstructure:"tracing"`
	Metrics         bool          `yaml:"metrics" mapstructure:"metrics"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Tracing true"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
}

// GetConfig returns the base Config. When embedded, the method is promoted.
func (c *Config) GetConfig() *Config {
	return c
}

// ApplyDefaults applies default values.
// Override this in embedding structs and call c.Config.ApplyDefaults() first.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	// Propagate the name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Container.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates the configuration tree.
// Override this in embedding structs and call c.Config.Validate() first.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// ApplyDefaults applies container defaults.
func (c *ContainerConfig) ApplyDefaults() {
	if c.DefaultScope == "" {
		c.DefaultScope = "singleton"
	}
}

// ApplyDefaults applies telemetry defaults.
func (c *ObservabilityConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = 15 * time.Second
	}
}

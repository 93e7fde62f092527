package observability

import (
	"fmt"
	"time"
)

// Config controls the optional OTLP exporters.
type Config struct {
	MetricsEnabled bool          `mapstructure:"metrics_enabled"`
	TracingEnabled bool          `mapstructure:"tracing_enabled"`
	Endpoint       string        `mapstructure:"endpoint"`
	Insecure       bool          `mapstructure:"insecure"`
	Interval       time.Duration `mapstructure:"interval"`
	SampleRate     float64       `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
	if c.SampleRate == 0 && c.TracingEnabled {
		c.SampleRate = 1.0
	}
}

// Validate checks exporter settings when an exporter is enabled.
func (c *Config) Validate() error {
	if !c.MetricsEnabled && !c.TracingEnabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("observability.endpoint is required when an exporter is enabled")
	}
	if c.Interval < 0 {
		return fmt.Errorf("observability.interval must not be negative")
	}
	return nil
}

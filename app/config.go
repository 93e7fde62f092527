package app

import (
	"fmt"
	"time"

	"github.com/kbukum/livepage/config"
	"github.com/kbukum/livepage/observability"
	"github.com/kbukum/livepage/registry"
	"github.com/kbukum/livepage/server"
	"github.com/kbukum/livepage/sse"
	"github.com/kbukum/livepage/validation"
)

// ServiceName names the service for config lookup and telemetry.
const ServiceName = "livepage"

// Config is the livepage service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Pages         PagesConfig          `yaml:"pages" mapstructure:"pages"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// PagesConfig tunes page delivery and upkeep.
type PagesConfig struct {
	sse.Config `yaml:",inline" mapstructure:",squash"`

	// HeartbeatInterval is how often every page is sent a keep-alive and
	// empty pages are pruned.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval" validate:"gte=0"`
}

// ApplyDefaults fills zero values across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Pages.Config.ApplyDefaults()
	if c.Pages.HeartbeatInterval == 0 {
		c.Pages.HeartbeatInterval = registry.DefaultHeartbeatInterval
	}
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags first, then each section's own rules.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Pages.Config.Validate(); err != nil {
		return fmt.Errorf("pages: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	return nil
}

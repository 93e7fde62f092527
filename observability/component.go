package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/livepage/component"
)

// Component owns the exporter-backed providers for the service lifetime.
// Instruments created from the global meter before Start are bound to the
// installed provider once it is set.
type Component struct {
	cfg         Config
	service     string
	version     string
	environment string

	mu sync.Mutex
	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates the observability component.
func NewComponent(cfg Config, service, version, environment string) *Component {
	return &Component{cfg: cfg, service: service, version: version, environment: environment}
}

// Name implements component.Component.
func (c *Component) Name() string { return "observability" }

// Start installs the enabled providers.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.MetricsEnabled {
		mp, err := InitMeter(ctx, &MeterConfig{
			ServiceName:    c.service,
			ServiceVersion: c.version,
			Environment:    c.environment,
			Endpoint:       c.cfg.Endpoint,
			Insecure:       c.cfg.Insecure,
			Interval:       c.cfg.Interval,
		})
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		c.mp = mp
	}
	if c.cfg.TracingEnabled {
		tp, err := InitTracer(ctx, &TracerConfig{
			ServiceName:    c.service,
			ServiceVersion: c.version,
			Environment:    c.environment,
			Endpoint:       c.cfg.Endpoint,
			Insecure:       c.cfg.Insecure,
			SampleRate:     c.cfg.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		c.tp = tp
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
		c.tp = nil
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
		c.mp = nil
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "exporters disabled"
	if c.cfg.MetricsEnabled || c.cfg.TracingEnabled {
		details = fmt.Sprintf("endpoint=%s metrics=%t tracing=%t", c.cfg.Endpoint, c.cfg.MetricsEnabled, c.cfg.TracingEnabled)
	}
	return component.Description{Name: "Observability", Type: "telemetry", Details: details}
}

package app

import (
	"fmt"

	"github.com/kbukum/livepage/bootstrap"
	"github.com/kbukum/livepage/logger"
	"github.com/kbukum/livepage/observability"
	"github.com/kbukum/livepage/page"
	"github.com/kbukum/livepage/registry"
	"github.com/kbukum/livepage/server"
	"github.com/kbukum/livepage/sse"
)

// New builds the livepage application from cfg.
func New(cfg *Config, opts ...bootstrap.Option) (*bootstrap.App[*Config], error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := Wire(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Wire registers the observability, registry and HTTP server components
// on a.
func Wire(a *bootstrap.App[*Config]) error {
	cfg := a.Cfg

	metrics, err := observability.NewMetrics(observability.Meter(ServiceName))
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	logs := logger.RegisterDefaults(a.Logger, "page", "sse", "registry")
	pageLog, hubLog, regLog := logs[0], logs[1], logs[2]

	reg := registry.New(func() *page.Content {
		return page.New(
			page.WithLogger(pageLog),
			page.WithFanout(func() page.Fanout {
				return sse.NewHub(cfg.Pages.Config, sse.WithLogger(hubLog), sse.WithMetrics(metrics))
			}),
		)
	}, registry.WithLogger(regLog), registry.WithMetrics(metrics))

	srv := server.New(cfg.Server, a.Logger, server.WithMetrics(metrics))
	srv.RegisterPages(reg)
	srv.RegisterSystem(cfg.Name, a.Components.HealthAll)

	// Telemetry starts first so instruments bind before traffic; the server
	// starts last and so stops first.
	if err := a.RegisterComponent(observability.NewComponent(
		cfg.Observability, cfg.Name, cfg.Version, cfg.Environment,
	)); err != nil {
		return err
	}
	if err := a.RegisterComponent(registry.NewComponent(reg, cfg.Pages.HeartbeatInterval)); err != nil {
		return err
	}
	return a.RegisterComponent(server.NewComponent(srv))
}

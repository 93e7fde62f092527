package bootstrap

import (
	"time"

	"github.com/kbukum/livepage/component"
	"github.com/kbukum/livepage/logger"
)

// logSummary logs each component's health and the startup duration.
func (a *App[C]) logSummary(health []component.Health, took time.Duration) {
	for _, h := range health {
		fields := logger.Fields(logger.FieldComponent, h.Name, "status", string(h.Status))
		if h.Message != "" {
			fields["message"] = h.Message
		}
		a.Logger.Info("Component health", fields)
	}

	a.Logger.Info("Startup complete", logger.Fields(
		"name", a.Name,
		"version", a.Version,
		logger.FieldDuration, took.Milliseconds(),
	))
}

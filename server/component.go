package server

import (
	"context"
	"fmt"

	"github.com/kbukum/livepage/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server for the component registry.
type Component struct {
	server *Server
}

// NewComponent returns a lifecycle component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (sc *Component) Server() *Server { return sc.server }

// Name implements component.Component.
func (sc *Component) Name() string { return componentName }

// Start implements component.Component.
func (sc *Component) Start(ctx context.Context) error { return sc.server.Start(ctx) }

// Stop implements component.Component.
func (sc *Component) Stop(ctx context.Context) error { return sc.server.Stop(ctx) }

// Health reports unhealthy until the listener is bound.
func (sc *Component) Health(_ context.Context) component.Health {
	sc.server.mu.Lock()
	bound := sc.server.listener != nil
	sc.server.mu.Unlock()

	if !bound {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "listener not bound",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (sc *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s (h2c)", sc.server.Addr()),
	}
}

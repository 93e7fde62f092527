package server

import (
	"github.com/kbukum/livepage/server/endpoint"
	"github.com/kbukum/livepage/server/middleware"
)

// RegisterSystem mounts the health and version endpoints under the system
// prefix.
func (s *Server) RegisterSystem(serviceName string, checker endpoint.HealthChecker) {
	sys := s.engine.Group(middleware.SystemPrefix)
	sys.GET("health", endpoint.Health(serviceName, checker))
	sys.GET("version", endpoint.Version())
}

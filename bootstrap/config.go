package bootstrap

import (
	"github.com/kbukum/livepage/config"
)

// Config is the constraint for application configuration types. A struct
// embedding config.ServiceConfig satisfies it through promoted methods as
// long as it is used by pointer.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

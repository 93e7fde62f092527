package logger

import "sync"

// named maps component names to loggers so packages can log under their
// own tag without being handed the application logger.
var named sync.Map

// Register stores l under name, replacing any earlier entry.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Get returns the logger registered under name. Unregistered names get the
// global logger tagged with name.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults registers a component logger derived from base for each
// name and returns them in the same order.
func RegisterDefaults(base *Logger, names ...string) []*Logger {
	out := make([]*Logger, len(names))
	for i, name := range names {
		out[i] = base.WithComponent(name)
		Register(name, out[i])
	}
	return out
}

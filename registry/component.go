package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/livepage/component"
	"github.com/kbukum/livepage/logger"
)

// DefaultHeartbeatInterval is the keep-alive cadence when none is set.
const DefaultHeartbeatInterval = 10 * time.Second

// Component runs the registry heartbeat loop.
type Component struct {
	reg      *Registry
	interval time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	lastPages       atomic.Int64
	lastSubscribers atomic.Int64
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps reg in a lifecycle component that heartbeats every
// interval.
func NewComponent(reg *Registry, interval time.Duration) *Component {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Component{reg: reg, interval: interval, log: logger.Get("registry")}
}

// Registry returns the wrapped registry.
func (c *Component) Registry() *Registry { return c.reg }

// Name implements component.Component.
func (c *Component) Name() string { return "registry" }

// Start launches the heartbeat loop.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return fmt.Errorf("registry: already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
	return nil
}

func (c *Component) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Component) tick(ctx context.Context) {
	start := time.Now()
	pages, subscribers := c.reg.Heartbeat(ctx)
	c.lastPages.Store(int64(pages))
	c.lastSubscribers.Store(int64(subscribers))
	c.log.WithFields(logger.Fields(
		"pages", pages,
		logger.FieldSubscribers, subscribers,
	)).Debug("heartbeat", logger.DurationFields("heartbeat", time.Since(start)))
}

// Stop halts the loop and waits for an in-flight heartbeat to finish.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports page and subscriber counts from the last heartbeat.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
		Message: fmt.Sprintf("%d pages tracked, %d live, %d subscribers",
			c.reg.Len(), c.lastPages.Load(), c.lastSubscribers.Load()),
	}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Page Registry",
		Type:    "registry",
		Details: fmt.Sprintf("heartbeat every %s", c.interval),
	}
}

package sse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/livepage/logger"
	"github.com/kbukum/livepage/observability"
)

// ErrHubClosed is returned when registering with a closed hub.
var ErrHubClosed = errors.New("sse: hub closed")

const (
	DefaultBufferSize  = 1
	DefaultSendTimeout = 10 * time.Second
)

// Config tunes per-client delivery.
type Config struct {
	// BufferSize is the per-client queue depth.
	BufferSize int `mapstructure:"buffer_size" validate:"min=1"`
	// SendTimeout bounds how long a broadcast waits on one full queue before
	// that client is dropped.
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = DefaultSendTimeout
	}
}

// Validate checks the delivery settings.
func (c *Config) Validate() error {
	if c.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be at least 1, got %d", c.BufferSize)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive, got %s", c.SendTimeout)
	}
	return nil
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(l *logger.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// WithMetrics records deliveries and subscriber counts.
func WithMetrics(m *observability.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// Hub fans events out to the clients of one page.
//
// Each broadcast runs as a task chained after the previous one, so every
// client sees frames in call order. At most BufferSize broadcasts may be
// pending at once; Send returns as soon as its task is chained and waits
// only when that backlog is full. Within a broadcast each client is fed by
// its own goroutine, and a full queue stalls the chain for at most
// SendTimeout before that client is dropped.
type Hub struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
	// tail is closed when the most recently dispatched task finishes.
	tail chan struct{}

	// pending holds one token per broadcast not yet delivered.
	pending chan struct{}
}

// NewHub creates an empty hub.
func NewHub(cfg Config, opts ...HubOption) *Hub {
	cfg.ApplyDefaults()
	h := &Hub{
		cfg:     cfg,
		clients: make(map[string]*Client),
		pending: make(chan struct{}, cfg.BufferSize),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Get("sse")
	}
	return h
}

// NewClient creates a client sized for this hub. It is not registered.
func (h *Hub) NewClient() *Client { return NewClient(h.cfg.BufferSize) }

// AddClient registers c. It receives every broadcast sent after AddClient
// returns and none sent before.
func (h *Hub) AddClient(ctx context.Context, c *Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.SubscriberAdded(ctx, 1)
	h.log.Debug("client registered", logger.Fields(
		logger.FieldSubscriberID, c.id,
		logger.FieldSubscribers, total,
	))
	return nil
}

// Send queues e for every registered client. It returns once delivery is
// scheduled, waiting first if BufferSize broadcasts are already pending.
// Clients that cannot accept e in time are dropped.
func (h *Hub) Send(ctx context.Context, e Event) {
	h.dispatch(ctx, e.Encode())
	h.metrics.EventPublished(ctx, e.Type)
}

// SendHeartbeat queues a keep-alive comment for every client and returns
// the number of clients addressed.
func (h *Hub) SendHeartbeat(ctx context.Context) int {
	n := h.dispatch(ctx, heartbeatFrame)
	h.metrics.HeartbeatSent(ctx, n)
	return n
}

// ConnectionCount returns the number of live clients. Clients whose reader
// has gone away are pruned.
func (h *Hub) ConnectionCount(ctx context.Context) int {
	h.mu.Lock()
	pruned := 0
	for id, c := range h.clients {
		if c.closed() {
			delete(h.clients, id)
			pruned++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SubscriberAdded(ctx, -pruned)
	return n
}

// Close rejects new clients and detaches the current ones once every
// broadcast already sent has been queued, so a final refresh still reaches
// them. Later calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.chainLocked(func() {
		for _, c := range clients {
			c.detach()
		}
		h.log.Debug("hub closed", logger.Fields(logger.FieldSubscribers, len(clients)))
	})
	h.mu.Unlock()

	h.metrics.SubscriberAdded(context.Background(), -len(clients))
}

// Wait blocks until every broadcast sent so far has been delivered or
// dropped.
func (h *Hub) Wait(ctx context.Context) error {
	h.mu.Lock()
	tail := h.tail
	h.mu.Unlock()
	if tail == nil {
		return nil
	}
	select {
	case <-tail:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch snapshots the live clients and chains delivery of frame to
// them. It returns the number of clients addressed.
func (h *Hub) dispatch(ctx context.Context, frame []byte) int {
	// Delivery outlives the caller's request.
	ctx = context.WithoutCancel(ctx)

	// A running task finishes within SendTimeout, so this wait is bounded.
	h.pending <- struct{}{}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if !c.closed() {
			clients = append(clients, c)
		}
	}
	if len(clients) == 0 {
		<-h.pending
		return 0
	}
	h.chainLocked(func() {
		defer func() { <-h.pending }()
		h.deliver(ctx, clients, frame)
	})
	return len(clients)
}

// chainLocked runs task after every previously chained task. Client event
// channels are only closed from chained tasks, so enqueue and detach never
// overlap. Caller holds h.mu.
func (h *Hub) chainLocked(task func()) {
	prev := h.tail
	done := make(chan struct{})
	h.tail = done
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		task()
	}()
}

func (h *Hub) deliver(ctx context.Context, clients []*Client, frame []byte) {
	ok := make([]bool, len(clients))
	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok[i] = c.enqueue(ctx, frame, h.cfg.SendTimeout)
		}()
	}
	wg.Wait()

	var failed []*Client
	for i, c := range clients {
		if !ok[i] {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		h.drop(ctx, failed)
	}
}

// drop removes clients after a failed delivery. Runs inside a chained task.
func (h *Hub) drop(ctx context.Context, failed []*Client) {
	h.mu.Lock()
	removed := 0
	for _, c := range failed {
		if h.clients[c.id] == c {
			delete(h.clients, c.id)
			removed++
		}
	}
	h.mu.Unlock()

	for _, c := range failed {
		c.detach()
		h.log.Debug("client dropped", logger.Fields(logger.FieldSubscriberID, c.id))
	}
	h.metrics.SubscriberAdded(ctx, -removed)
	h.metrics.DeliveryDropped(ctx, len(failed))
}

package sse

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is one subscriber's bounded outbound queue.
//
// The hub owns the events channel and closes it when it detaches the client.
// The reader owns done and closes it through Close.
type Client struct {
	id     string
	events chan []byte
	done   chan struct{}

	closeOnce  sync.Once
	detachOnce sync.Once
	// detached is only touched from hub tasks, which never run concurrently.
	detached bool
}

// NewClient creates a client whose queue holds bufferSize frames.
// Values below 1 are raised to 1.
func NewClient(bufferSize int) *Client {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Client{
		id:     uuid.NewString(),
		events: make(chan []byte, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Events returns the frames queued for this client. The channel is closed
// after the hub drops or detaches the client; frames queued before that
// are still delivered.
func (c *Client) Events() <-chan []byte { return c.events }

// Done is closed once the reader has gone away.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close marks the reader as gone. Safe to call multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue blocks while the queue is full, up to timeout.
func (c *Client) enqueue(ctx context.Context, frame []byte, timeout time.Duration) bool {
	if c.detached || c.closed() {
		return false
	}
	// Fast path when there is room.
	select {
	case c.events <- frame:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.events <- frame:
		return true
	case <-c.done:
		return false
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// detach closes the events channel. Only hub tasks call it, so no enqueue
// is in flight.
func (c *Client) detach() {
	c.detachOnce.Do(func() {
		c.detached = true
		close(c.events)
	})
}

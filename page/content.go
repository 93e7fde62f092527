package page

import (
	"bytes"
	"context"
	"errors"

	"github.com/kbukum/livepage/logger"
	"github.com/kbukum/livepage/sse"
)

// ErrNotLive is returned by operations that only apply to live pages.
var ErrNotLive = errors.New("page: content is static")

// Fanout delivers events to the subscribers of one live page. Send must
// keep call order per subscriber. It may wait for a slow subscriber only
// for a bounded time.
type Fanout interface {
	NewClient() *sse.Client
	AddClient(ctx context.Context, c *sse.Client) error
	Send(ctx context.Context, e sse.Event)
	SendHeartbeat(ctx context.Context) int
	ConnectionCount(ctx context.Context) int
	Close()
}

// state is either *liveState or *staticState.
type state interface{ isState() }

type liveState struct {
	title  string
	body   string
	fanout Fanout
}

type staticState struct {
	// contentType is nil when none was given.
	contentType *string
	data        []byte
}

func (*liveState) isState()   {}
func (*staticState) isState() {}

// Option configures a Content.
type Option func(*Content)

// WithFanout sets the constructor used for each new live state's fanout.
func WithFanout(newFanout func() Fanout) Option {
	return func(c *Content) { c.newFanout = newFanout }
}

// WithLogger sets the page logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Content) { c.log = l }
}

// Content is the content of one page: live (title and body pushed to
// subscribers) or static (fixed bytes with a content type).
//
// Content is not safe for concurrent use. Callers must serialize every
// operation on the same Content; the registry does this per path.
type Content struct {
	state     state
	newFanout func() Fanout
	log       *logger.Logger
}

// New returns an empty live page with no subscribers.
func New(opts ...Option) *Content {
	c := &Content{}
	for _, opt := range opts {
		opt(c)
	}
	if c.newFanout == nil {
		c.newFanout = func() Fanout { return sse.NewHub(sse.Config{}) }
	}
	if c.log == nil {
		c.log = logger.Get("page")
	}
	c.state = c.newLive()
	return c
}

func (c *Content) newLive() *liveState {
	return &liveState{fanout: c.newFanout()}
}

// IsEmpty reports whether the page is live with no title, no body and no
// subscribers.
func (c *Content) IsEmpty(ctx context.Context) bool {
	l, ok := c.state.(*liveState)
	if !ok {
		return false
	}
	return l.title == "" && l.body == "" && l.fanout.ConnectionCount(ctx) == 0
}

// Subscribe registers a new subscriber and broadcasts the current title and
// body to every subscriber, so the new one starts in sync. Returns
// ErrNotLive for static pages.
func (c *Content) Subscribe(ctx context.Context) (*sse.Client, error) {
	l, ok := c.state.(*liveState)
	if !ok {
		return nil, ErrNotLive
	}
	client := l.fanout.NewClient()
	if err := l.fanout.AddClient(ctx, client); err != nil {
		return nil, err
	}
	l.fanout.Send(ctx, FieldEvent(FieldTitle, l.title))
	l.fanout.Send(ctx, FieldEvent(FieldBody, l.body))
	return client, nil
}

// SendHeartbeat sends a keep-alive to every subscriber and returns how many
// were addressed. ok is false for static pages.
func (c *Content) SendHeartbeat(ctx context.Context) (n int, ok bool) {
	l, ok := c.state.(*liveState)
	if !ok {
		return 0, false
	}
	return l.fanout.SendHeartbeat(ctx), true
}

// Refresh tells every subscriber to reload. No-op for static pages.
func (c *Content) Refresh(ctx context.Context) {
	refresh(ctx, c.state)
}

func refresh(ctx context.Context, s state) {
	if l, ok := s.(*liveState); ok {
		l.fanout.Send(ctx, RefreshEvent())
	}
}

// SetStatic replaces the page with fixed bytes. Subscribers of the replaced
// live state get a refresh and are then detached. A nil contentType means
// none; an empty one is stored as given.
func (c *Content) SetStatic(ctx context.Context, contentType *string, data []byte) {
	old := c.state
	s := &staticState{data: bytes.Clone(data)}
	if contentType != nil {
		ct := *contentType
		s.contentType = &ct
	}
	c.state = s

	refresh(ctx, old)
	if l, ok := old.(*liveState); ok {
		l.fanout.Close()
		c.log.Debug("live page frozen", logger.Fields(logger.FieldOperation, "set_static"))
	}
}

// SetTitle sets the title, converting a static page to an empty live one
// first. Subscribers are notified only when the value changes.
func (c *Content) SetTitle(ctx context.Context, title string) {
	l := c.ensureLive()
	if l.title == title {
		return
	}
	l.title = title
	l.fanout.Send(ctx, FieldEvent(FieldTitle, title))
}

// SetBody sets the body, converting a static page to an empty live one
// first. Subscribers are notified only when the value changes.
func (c *Content) SetBody(ctx context.Context, body string) {
	l := c.ensureLive()
	if l.body == body {
		return
	}
	l.body = body
	l.fanout.Send(ctx, FieldEvent(FieldBody, body))
}

// ensureLive returns the live state, replacing a static state with a fresh
// empty live one. The conversion is silent: static pages have no
// subscribers to tell.
func (c *Content) ensureLive() *liveState {
	if l, ok := c.state.(*liveState); ok {
		return l
	}
	l := c.newLive()
	c.state = l
	c.log.Debug("static page made live", logger.Fields(logger.FieldOperation, "ensure_live"))
	return l
}

// ContentType returns the static page's content type. ok is false for live
// pages and for static pages stored without one. An empty type stored
// explicitly is returned with ok true.
func (c *Content) ContentType() (contentType string, ok bool) {
	s, isStatic := c.state.(*staticState)
	if !isStatic || s.contentType == nil {
		return "", false
	}
	return *s.contentType, true
}

// View is a point-in-time copy of a page for rendering.
type View struct {
	Live  bool
	Title string
	Body  string
	// ContentType is nil for live pages and for static pages without one.
	ContentType *string
	Data        []byte
}

// View returns the current content.
func (c *Content) View() View {
	switch s := c.state.(type) {
	case *liveState:
		return View{Live: true, Title: s.title, Body: s.body}
	case *staticState:
		return View{ContentType: s.contentType, Data: s.data}
	}
	return View{}
}

// Close detaches any subscribers. The Content must not be used afterwards.
func (c *Content) Close() {
	if l, ok := c.state.(*liveState); ok {
		l.fanout.Close()
	}
}

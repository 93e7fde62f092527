package page

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/livepage/sse"
)

type countingFactory struct {
	hubs []*sse.Hub
}

func (f *countingFactory) new() Fanout {
	h := sse.NewHub(sse.Config{BufferSize: 16, SendTimeout: time.Second})
	f.hubs = append(f.hubs, h)
	return h
}

func newTestContent() (*Content, *countingFactory) {
	f := &countingFactory{}
	return New(WithFanout(f.new)), f
}

func mediaType(s string) *string { return &s }

type frame struct{ typ, data string }

func parse(raw []byte) frame {
	var f frame
	var data []string
	for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			f.typ = value
		case "data":
			data = append(data, value)
		}
	}
	f.data = strings.Join(data, "\n")
	return f
}

func next(t *testing.T, c *sse.Client) frame {
	t.Helper()
	select {
	case raw, ok := <-c.Events():
		if !ok {
			t.Fatal("stream closed")
		}
		return parse(raw)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return frame{}
}

// expectNone waits for pending deliveries, then checks c has nothing queued.
func (f *countingFactory) expectNone(t *testing.T, c *sse.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, h := range f.hubs {
		if err := h.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	select {
	case raw, ok := <-c.Events():
		if ok {
			t.Fatalf("unexpected event %+v", parse(raw))
		}
	default:
	}
}

func subscribe(t *testing.T, c *Content) *sse.Client {
	t.Helper()
	client, err := c.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	return client
}

func TestNewIsEmpty(t *testing.T) {
	c, f := newTestContent()
	if !c.IsEmpty(context.Background()) {
		t.Error("new content should be empty")
	}
	if len(f.hubs) != 1 {
		t.Errorf("expected one fanout, got %d", len(f.hubs))
	}
	if _, ok := c.ContentType(); ok {
		t.Error("new content should have no content type")
	}
}

func TestEmptinessTracksFields(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()

	c.SetTitle(ctx, "x")
	if c.IsEmpty(ctx) {
		t.Error("content with a title is not empty")
	}
	c.SetTitle(ctx, "")
	if !c.IsEmpty(ctx) {
		t.Error("content with cleared title and no body should be empty")
	}

	c.SetBody(ctx, "b")
	c.SetTitle(ctx, "x")
	c.SetTitle(ctx, "")
	if c.IsEmpty(ctx) {
		t.Error("content with a body is not empty")
	}
}

func TestEmptinessTracksSubscribers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()

	client := subscribe(t, c)
	if c.IsEmpty(ctx) {
		t.Error("content with a subscriber is not empty")
	}
	client.Close()
	if !c.IsEmpty(ctx) {
		t.Error("content should be empty once the subscriber leaves")
	}
}

func TestSetTitleSameValueEmitsOnce(t *testing.T) {
	ctx := context.Background()
	c, f := newTestContent()
	client := subscribe(t, c)
	next(t, client)
	next(t, client)

	c.SetTitle(ctx, "x")
	c.SetTitle(ctx, "x")

	if got := next(t, client); got != (frame{"title", "x"}) {
		t.Errorf("expected title:x, got %+v", got)
	}
	f.expectNone(t, client)

	c.SetTitle(ctx, "")
	c.SetTitle(ctx, "")
	if got := next(t, client); got.typ != "clear-title" {
		t.Errorf("expected clear-title, got %+v", got)
	}
	f.expectNone(t, client)
}

func TestSetBodySameValueEmitsOnce(t *testing.T) {
	ctx := context.Background()
	c, f := newTestContent()
	client := subscribe(t, c)
	next(t, client)
	next(t, client)

	c.SetBody(ctx, "<p>hi</p>")
	c.SetBody(ctx, "<p>hi</p>")
	if got := next(t, client); got != (frame{"body", "<p>hi</p>"}) {
		t.Errorf("expected body event, got %+v", got)
	}
	f.expectNone(t, client)
}

func TestSubscribePrimesCurrentState(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()
	c.SetTitle(ctx, "T")
	c.SetBody(ctx, "B")

	client := subscribe(t, c)
	if got := next(t, client); got != (frame{"title", "T"}) {
		t.Errorf("expected title:T first, got %+v", got)
	}
	if got := next(t, client); got != (frame{"body", "B"}) {
		t.Errorf("expected body:B second, got %+v", got)
	}

	c.SetBody(ctx, "C")
	if got := next(t, client); got != (frame{"body", "C"}) {
		t.Errorf("expected body:C after priming, got %+v", got)
	}
}

func TestSubscribePrimesClearsWhenEmpty(t *testing.T) {
	c, _ := newTestContent()
	client := subscribe(t, c)

	if got := next(t, client); got != (frame{"clear-title", "."}) {
		t.Errorf("expected clear-title, got %+v", got)
	}
	if got := next(t, client); got != (frame{"clear-body", "."}) {
		t.Errorf("expected clear-body, got %+v", got)
	}
}

func TestPrimingReachesExistingSubscribers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()
	c.SetTitle(ctx, "T")

	first := subscribe(t, c)
	next(t, first)
	next(t, first)

	subscribe(t, c)
	if got := next(t, first); got != (frame{"title", "T"}) {
		t.Errorf("existing subscriber expected duplicate title, got %+v", got)
	}
	if got := next(t, first); got.typ != "clear-body" {
		t.Errorf("existing subscriber expected duplicate clear-body, got %+v", got)
	}
}

func TestSetStaticRefreshesAndDetachesSubscribers(t *testing.T) {
	ctx := context.Background()
	c, f := newTestContent()
	client := subscribe(t, c)
	next(t, client)
	next(t, client)

	c.SetStatic(ctx, mediaType("text/plain"), []byte("hello"))

	if got := next(t, client); got.typ != EventRefresh {
		t.Errorf("expected refresh, got %+v", got)
	}
	if _, ok := <-client.Events(); ok {
		t.Error("expected old subscriber detached after refresh")
	}
	if n := f.hubs[0].ConnectionCount(ctx); n != 0 {
		t.Errorf("expected old fanout empty, got %d", n)
	}

	if _, err := c.Subscribe(ctx); !errors.Is(err, ErrNotLive) {
		t.Errorf("expected ErrNotLive, got %v", err)
	}
	if _, ok := c.SendHeartbeat(ctx); ok {
		t.Error("heartbeat should not apply to static content")
	}
	if c.IsEmpty(ctx) {
		t.Error("static content is never empty")
	}
}

func TestContentType(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()

	c.SetStatic(ctx, mediaType("text/plain"), []byte("a"))
	if ct, ok := c.ContentType(); !ok || ct != "text/plain" {
		t.Errorf("expected text/plain, got %q (%v)", ct, ok)
	}

	c.SetStatic(ctx, mediaType("image/png"), []byte("b"))
	if ct, _ := c.ContentType(); ct != "image/png" {
		t.Errorf("expected most recent type image/png, got %q", ct)
	}

	c.SetStatic(ctx, mediaType(""), []byte("c"))
	if ct, ok := c.ContentType(); !ok || ct != "" {
		t.Errorf("expected an explicitly empty type to be kept, got %q (%v)", ct, ok)
	}

	c.SetStatic(ctx, nil, []byte("d"))
	if _, ok := c.ContentType(); ok {
		t.Error("expected no content type when none was given")
	}
	if v := c.View(); v.ContentType != nil {
		t.Errorf("expected view without content type, got %q", *v.ContentType)
	}
}

func TestStaticToLiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, f := newTestContent()
	c.SetBody(ctx, "old body")
	old := subscribe(t, c)
	next(t, old)
	next(t, old)

	c.SetStatic(ctx, mediaType("text/plain"), []byte("frozen"))
	c.SetTitle(ctx, "x")

	if len(f.hubs) != 2 {
		t.Fatalf("expected a fresh fanout after conversion, got %d", len(f.hubs))
	}
	if n := f.hubs[1].ConnectionCount(ctx); n != 0 {
		t.Errorf("expected zero subscribers on fresh fanout, got %d", n)
	}
	v := c.View()
	if !v.Live || v.Title != "x" || v.Body != "" {
		t.Errorf("expected live title=x body=\"\", got %+v", v)
	}
	if _, ok := c.ContentType(); ok {
		t.Error("live content has no content type")
	}

	if got := next(t, old); got.typ != EventRefresh {
		t.Errorf("old subscriber expected refresh, got %+v", got)
	}
	if _, ok := <-old.Events(); ok {
		t.Error("old subscriber should receive nothing after refresh")
	}
}

func TestSetBodyConvertsStaticSilently(t *testing.T) {
	ctx := context.Background()
	c, f := newTestContent()
	c.SetStatic(ctx, mediaType("text/plain"), []byte("frozen"))

	c.SetBody(ctx, "")
	if !c.IsEmpty(ctx) {
		t.Error("clearing the body of a converted page leaves it empty")
	}

	client := subscribe(t, c)
	if got := next(t, client); got.typ != "clear-title" {
		t.Errorf("expected clear-title, got %+v", got)
	}
	if got := next(t, client); got.typ != "clear-body" {
		t.Errorf("expected clear-body, got %+v", got)
	}
	f.expectNone(t, client)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()
	client := subscribe(t, c)
	next(t, client)
	next(t, client)

	c.Refresh(ctx)
	if got := next(t, client); got.typ != EventRefresh {
		t.Errorf("expected refresh, got %+v", got)
	}

	c.SetStatic(ctx, nil, nil)
	c.Refresh(ctx)
}

func TestSendHeartbeat(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestContent()

	if n, ok := c.SendHeartbeat(ctx); !ok || n != 0 {
		t.Errorf("expected 0 addressed on a live page, got %d (%v)", n, ok)
	}

	client := subscribe(t, c)
	next(t, client)
	next(t, client)
	if n, ok := c.SendHeartbeat(ctx); !ok || n != 1 {
		t.Errorf("expected 1 addressed, got %d (%v)", n, ok)
	}
	select {
	case raw := <-client.Events():
		if !strings.HasPrefix(string(raw), ":") {
			t.Errorf("expected comment frame, got %q", raw)
		}
	case <-time.After(time.Second):
		t.Fatal("no heartbeat received")
	}
}

func TestSetStaticCopiesData(t *testing.T) {
	c, _ := newTestContent()
	data := []byte("abc")
	c.SetStatic(context.Background(), mediaType("text/plain"), data)
	data[0] = 'z'

	if got := string(c.View().Data); got != "abc" {
		t.Errorf("expected stored bytes unchanged, got %q", got)
	}
}

func TestSubscribeWithDefaultQueueDepth(t *testing.T) {
	ctx := context.Background()
	c := New()
	c.SetTitle(ctx, "T")
	c.SetBody(ctx, "B")

	done := make(chan *sse.Client)
	go func() {
		client, _ := c.Subscribe(ctx)
		done <- client
	}()

	var client *sse.Client
	select {
	case client = <-done:
	case <-time.After(time.Second):
		t.Fatal("Subscribe must not wait for the subscriber to read")
	}
	if got := next(t, client); got != (frame{"title", "T"}) {
		t.Errorf("expected title:T, got %+v", got)
	}
	if got := next(t, client); got != (frame{"body", "B"}) {
		t.Errorf("expected body:B, got %+v", got)
	}
}

func TestSetBodyWaitsWhenBacklogFull(t *testing.T) {
	ctx := context.Background()
	c := New(WithFanout(func() Fanout {
		return sse.NewHub(sse.Config{BufferSize: 1, SendTimeout: time.Second})
	}))
	client := subscribe(t, c)

	// Priming fills the queue and leaves one broadcast pending.
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.SetBody(ctx, "next")
	}()

	select {
	case <-done:
		t.Fatal("expected SetBody to wait while the subscriber lags")
	case <-time.After(100 * time.Millisecond):
	}

	for _, want := range []frame{{"clear-title", "."}, {"clear-body", "."}} {
		if got := next(t, client); got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected SetBody to return once the subscriber caught up")
	}
	if got := next(t, client); got != (frame{"body", "next"}) {
		t.Errorf("expected body:next, got %+v", got)
	}
}

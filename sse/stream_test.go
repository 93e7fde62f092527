package sse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStream_WritesQueuedFramesUntilDetached(t *testing.T) {
	h := newTestHub(4, time.Second)
	ctx := context.Background()
	c := addClient(t, h)

	h.Send(ctx, Event{Type: "title", Data: "T"})
	h.Send(ctx, Event{Type: "body", Data: "line1\nline2"})
	h.Close()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/notes?updates", nil)
	Stream(w, r, c)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected no-cache, got %q", cc)
	}

	frames := strings.SplitAfter(w.Body.String(), "\n\n")
	typ, data := parseFrame(t, []byte(frames[0]))
	if typ != "title" || data != "T" {
		t.Errorf("expected title:T, got %s:%s", typ, data)
	}
	typ, data = parseFrame(t, []byte(frames[1]))
	if typ != "body" || data != "line1\nline2" {
		t.Errorf("expected multi-line body, got %s:%q", typ, data)
	}

	select {
	case <-c.Done():
	default:
		t.Error("expected client closed after stream ends")
	}
}

func TestStream_EndsWhenRequestCanceled(t *testing.T) {
	h := newTestHub(1, time.Second)
	c := addClient(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest(http.MethodGet, "/notes?updates", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		Stream(w, r, c)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after cancel")
	}

	if n := h.ConnectionCount(context.Background()); n != 0 {
		t.Errorf("expected disconnected client pruned, got %d", n)
	}
}

func TestStream_OverHTTP(t *testing.T) {
	h := newTestHub(1, time.Second)
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := h.NewClient()
		if err := h.AddClient(r.Context(), c); err != nil {
			http.Error(w, err.Error(), http.StatusGone)
			return
		}
		close(registered)
		Stream(w, r, c)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	<-registered
	h.Send(context.Background(), Event{Type: "refresh", Data: "."})
	h.Close()

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if typ, _ := parseFrame(t, []byte(buf.String())); typ != "refresh" {
		t.Errorf("expected refresh event, got %q in %q", typ, buf.String())
	}
}

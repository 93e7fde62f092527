package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/livepage/logger"
	"github.com/kbukum/livepage/observability"
	"github.com/kbukum/livepage/page"
)

// slot holds one page. guard is a one-token semaphore giving exclusive
// access to content; refs counts callers between acquire and release.
type slot struct {
	path    string
	guard   chan struct{}
	refs    int
	content *page.Content
}

func (s *slot) lock(ctx context.Context) error {
	select {
	case s.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *slot) unlock() { <-s.guard }

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithMetrics records the number of tracked pages.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// Registry maps request paths to pages and serializes access to each page.
type Registry struct {
	newContent func() *page.Content
	log        *logger.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	pages map[string]*slot
}

// New creates an empty registry. newContent builds the page for a path seen
// for the first time.
func New(newContent func() *page.Content, opts ...Option) *Registry {
	r := &Registry{
		newContent: newContent,
		pages:      make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get("registry")
	}
	return r
}

// With runs fn with exclusive access to the page at path, creating it if
// needed. fn must not retain the page. It returns ctx.Err() if ctx ends
// before access is granted.
func (r *Registry) With(ctx context.Context, path string, fn func(*page.Content)) error {
	s := r.acquire(ctx, path)
	defer r.release(s)

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	fn(s.content)
	return nil
}

// Len returns the number of tracked pages.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Paths returns the tracked paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	paths := make([]string, 0, len(r.pages))
	for p := range r.pages {
		paths = append(paths, p)
	}
	r.mu.Unlock()
	sort.Strings(paths)
	return paths
}

// Heartbeat sends a keep-alive to every live page and drops pages that are
// empty and not in use. It returns the number of live pages and the number
// of subscribers addressed.
func (r *Registry) Heartbeat(ctx context.Context) (pages, subscribers int) {
	slots := r.acquireAll()
	pruned := 0

	for _, s := range slots {
		if err := s.lock(ctx); err != nil {
			r.release(s)
			continue
		}
		if n, ok := s.content.SendHeartbeat(ctx); ok {
			pages++
			subscribers += n
		}
		if r.pruneLocked(ctx, s) {
			pruned++
		}
		s.unlock()
		r.release(s)
	}

	if pruned > 0 {
		r.log.Debug("pruned empty pages", logger.Fields("pruned", pruned, "remaining", r.Len()))
	}
	return pages, subscribers
}

// CloseAll detaches every subscriber of every page so open streams end.
// Pages stay registered.
func (r *Registry) CloseAll(ctx context.Context) {
	for _, s := range r.acquireAll() {
		if err := s.lock(ctx); err == nil {
			s.content.Close()
			s.unlock()
		}
		r.release(s)
	}
}

func (r *Registry) acquire(ctx context.Context, path string) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.pages[path]
	if !ok {
		s = &slot{
			path:    path,
			guard:   make(chan struct{}, 1),
			content: r.newContent(),
		}
		r.pages[path] = s
		r.metrics.PagesChanged(ctx, 1)
		r.log.Debug("page created", logger.Fields(logger.FieldPath, path))
	}
	s.refs++
	return s
}

func (r *Registry) acquireAll() []*slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots := make([]*slot, 0, len(r.pages))
	for _, s := range r.pages {
		s.refs++
		slots = append(slots, s)
	}
	return slots
}

func (r *Registry) release(s *slot) {
	r.mu.Lock()
	s.refs--
	r.mu.Unlock()
}

// pruneLocked removes s if it is empty and the caller holds the only
// reference. The caller holds s's guard, so no one else can change it.
func (r *Registry) pruneLocked(ctx context.Context, s *slot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.refs != 1 || r.pages[s.path] != s {
		return false
	}
	if !s.content.IsEmpty(ctx) {
		return false
	}
	delete(r.pages, s.path)
	s.content.Close()
	r.metrics.PagesChanged(ctx, -1)
	return true
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricEventsPublished   = "livepage.events.published"
	MetricDeliveriesDropped = "livepage.deliveries.dropped"
	MetricSubscribersActive = "livepage.subscribers.active"
	MetricHeartbeatsSent    = "livepage.heartbeats.sent"
	MetricPagesActive       = "livepage.pages.active"
	MetricRequestDuration   = "livepage.request.duration"
)

// Metrics holds the livepage instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	eventsPublished   metric.Int64Counter
	deliveriesDropped metric.Int64Counter
	subscribersActive metric.Int64UpDownCounter
	heartbeatsSent    metric.Int64Counter
	pagesActive       metric.Int64UpDownCounter
	requestDuration   metric.Float64Histogram
}

// NewMetrics creates the instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	eventsPublished, err := meter.Int64Counter(MetricEventsPublished,
		metric.WithDescription("Events broadcast to page subscribers, by event type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEventsPublished, err)
	}

	deliveriesDropped, err := meter.Int64Counter(MetricDeliveriesDropped,
		metric.WithDescription("Subscribers dropped after a failed or timed out delivery"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDeliveriesDropped, err)
	}

	subscribersActive, err := meter.Int64UpDownCounter(MetricSubscribersActive,
		metric.WithDescription("Currently connected event stream subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricSubscribersActive, err)
	}

	heartbeatsSent, err := meter.Int64Counter(MetricHeartbeatsSent,
		metric.WithDescription("Keep-alive frames addressed to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricHeartbeatsSent, err)
	}

	pagesActive, err := meter.Int64UpDownCounter(MetricPagesActive,
		metric.WithDescription("Pages tracked by the registry"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricPagesActive, err)
	}

	requestDuration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Duration of non-streaming HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRequestDuration, err)
	}

	return &Metrics{
		eventsPublished:   eventsPublished,
		deliveriesDropped: deliveriesDropped,
		subscribersActive: subscribersActive,
		heartbeatsSent:    heartbeatsSent,
		pagesActive:       pagesActive,
		requestDuration:   requestDuration,
	}, nil
}

// EventPublished counts one broadcast of the named event type.
func (m *Metrics) EventPublished(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

// DeliveryDropped counts subscribers removed after a failed delivery.
func (m *Metrics) DeliveryDropped(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deliveriesDropped.Add(ctx, int64(n))
}

// SubscriberAdded adjusts the active subscriber gauge by delta.
func (m *Metrics) SubscriberAdded(ctx context.Context, delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.subscribersActive.Add(ctx, int64(delta))
}

// HeartbeatSent counts keep-alive frames addressed to n subscribers.
func (m *Metrics) HeartbeatSent(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.heartbeatsSent.Add(ctx, int64(n))
}

// PagesChanged adjusts the active page gauge by delta.
func (m *Metrics) PagesChanged(ctx context.Context, delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.pagesActive.Add(ctx, int64(delta))
}

// RequestDone records a completed HTTP request.
func (m *Metrics) RequestDone(ctx context.Context, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	))
}

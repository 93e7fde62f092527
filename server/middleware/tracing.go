package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/livepage/observability"
)

// Tracing starts a server span per request and records request duration.
// Event streams get a span covering the whole stream but are left out of
// the duration histogram.
func Tracing(metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := observability.StartSpan(ctx, r.Method+" page",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String(observability.AttrPagePath, r.URL.Path),
					attribute.String(observability.AttrRequestID, r.Header.Get(HeaderRequestID)),
				),
			)
			defer span.End()

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			}
			if !strings.HasPrefix(sw.Header().Get("Content-Type"), "text/event-stream") {
				metrics.RequestDone(ctx, r.Method, sw.status, time.Since(start))
			}
		})
	}
}

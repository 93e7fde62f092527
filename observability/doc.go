// Package observability wires OpenTelemetry metrics and tracing into livepage.
//
// Exporters are optional. When disabled, the global no-op providers stay in
// place and every instrument records nothing.
//
//	metrics, err := observability.NewMetrics(observability.Meter("livepage"))
//	metrics.EventPublished(ctx, "title")
//
//	ctx, span := observability.StartSpan(ctx, "GET /notes")
//	defer span.End()
package observability

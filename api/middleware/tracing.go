package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request and continues any trace context the
// caller propagated (W3C traceparent with the default propagator). Once chi has
// routed the request the span is renamed to "<METHOD> <route pattern>".
func Tracing(operation string, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	instrument := otelhttp.NewMiddleware(operation, opts...)
	return func(next http.Handler) http.Handler {
		return instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			route := metricsRoute(r)
			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + route)
			span.SetAttributes(semconv.HTTPRoute(route))
		}))
	}
}

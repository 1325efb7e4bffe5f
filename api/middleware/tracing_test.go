package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

const (
	upstreamTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	upstreamSpanID  = "00f067aa0ba902b7"
)

func tracedRouter(t *testing.T) (http.Handler, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(Tracing("orderstock",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(propagation.TraceContext{}),
	))
	r.Get("/api/v1/orders/{orderId}", okHandler().ServeHTTP)
	return r, recorder
}

func TestTracingContinuesUpstreamTrace(t *testing.T) {
	handler, recorder := tracedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	req.Header.Set("traceparent", "00-"+upstreamTraceID+"-"+upstreamSpanID+"-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	wantTrace, err := trace.TraceIDFromHex(upstreamTraceID)
	require.NoError(t, err)
	wantParent, err := trace.SpanIDFromHex(upstreamSpanID)
	require.NoError(t, err)

	assert.Equal(t, wantTrace, span.SpanContext().TraceID())
	assert.Equal(t, wantParent, span.Parent().SpanID())
	assert.True(t, span.Parent().IsRemote())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, "GET /api/v1/orders/{orderId}", span.Name())
}

func TestTracingStartsRootWithoutHeader(t *testing.T) {
	handler, recorder := tracedRouter(t)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Parent().IsValid())
	assert.Equal(t, "GET unmatched", spans[0].Name())
}

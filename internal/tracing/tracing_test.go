package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func TestInitializeDisabled(t *testing.T) {
	shutdown, err := Initialize(Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.Empty(t, W3CTraceparent(ctx))
}

func TestTraceparentInjection(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer(defaultServiceName)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tracer = otel.Tracer(defaultServiceName)
	})

	ctx, span := StartHTTPSpan(context.Background(), http.MethodGet, "https://www.reuters.com/world/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.reuters.com/world/", nil)
	require.NoError(t, err)
	InjectTraceparent(ctx, req)
	span.End()

	header := req.Header.Get("traceparent")
	assert.Regexp(t, `^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`, header)
	require.Len(t, exporter.GetSpans(), 1)
	assert.Equal(t, "HTTP GET", exporter.GetSpans()[0].Name)
}

package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedTracer() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanInheritsTrace(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, childCtx := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
	assert.NotEmpty(t, parent.TraceID)
}

func TestTraceSubmitsSpan(t *testing.T) {
	tracer, logs := newObservedTracer()

	boom := errors.New("boom")
	err := tracer.Trace(context.Background(), "stage", func(ctx context.Context) error {
		assert.NotEmpty(t, GetTraceID(ctx))
		return boom
	})
	require.ErrorIs(t, err, boom)

	tracer.Close()

	entries := logs.FilterMessage("span completed with error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stage", entries[0].ContextMap()["operation"])
}

func TestTraceAfterCloseDropsSpan(t *testing.T) {
	tracer, logs := newObservedTracer()
	tracer.Close()
	tracer.Close()

	assert.NotPanics(t, func() {
		err := tracer.Trace(context.Background(), "late", func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})
	assert.Equal(t, 1, logs.FilterMessage("tracer closed, dropping span").Len())
	assert.Zero(t, logs.FilterMessage("span completed").Len())
}

func TestInjectExtractRoundTrip(t *testing.T) {
	ctx := WithSpan(context.Background(), "trace-1", "span-1")
	headers := map[string]string{}

	InjectTraceContext(ctx, headers)
	traceID, spanID := ExtractTraceContext(headers)

	assert.Equal(t, TraceID("trace-1"), traceID)
	assert.Equal(t, SpanID("span-1"), spanID)
	assert.Len(t, Fields(ctx), 2)
	assert.Nil(t, Fields(context.Background()))
}

func TestHTTPMiddlewarePropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderTraceID, "incoming")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	tracer.Close()

	assert.Equal(t, TraceID("incoming"), seen)
	assert.Equal(t, "incoming", w.Header().Get(HeaderTraceID))

	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "204", entries[0].ContextMap()["http.status"])
}

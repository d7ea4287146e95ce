package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kwansinnn/cytosight-all-detect/application/ports/mocks"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	"github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func installProvider(t *testing.T, tp *sdktrace.TracerProvider) {
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
}

func TestCollector_RecordsOutcomeByErrorType(t *testing.T) {
	c := NewCollector("test")

	c.RecordCommand("CreateThread", 10*time.Millisecond, nil)
	c.RecordCommand("CreateThread", 10*time.Millisecond, errors.NewValidationError("title is required"))
	c.RecordQuery("ListThreads", time.Millisecond, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("CreateThread", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("CreateThread", string(errors.ErrorTypeValidation))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("ListThreads", "error")))
}

func TestCollector_HandlerServesRegistry(t *testing.T) {
	c := NewCollector("test")
	c.RegisterGauge("test", "workspaces_active", "Open workspaces", func() float64 { return 3 })
	c.RecordEvent(events.TypeThreadCreated, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "test_workspaces_active 3")
	assert.Contains(t, body, `test_events_published_total{event_type="thread.created",status="ok"} 1`)
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	c := NewCollector("test")
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(c))
	r.Get("/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/threads/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/threads/{id}", "404")))
}

func TestTracingMiddleware_SetsTraceHeader(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	installProvider(t, tp)

	r := chi.NewRouter()
	r.Use(TracingMiddleware("test"))
	r.Get("/uploads/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/1", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /uploads/{id}", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestInstrumentedFactory_WrapsStore(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	c := NewCollector("test")

	store := &mocks.Store{}
	store.On("FindMarker", mock.Anything, mock.Anything).Return(false, nil)
	store.On("DeleteThread", mock.Anything, "t1").Return(errors.NewNotFoundError("thread"))
	factory := &mocks.StoreFactory{}
	factory.On("ForSession", mock.Anything).Return(store, nil)

	wrapped, err := NewInstrumentedFactory(factory, tracer, c).ForSession(&auth.Session{UserID: "alice"})
	require.NoError(t, err)

	found, err := wrapped.FindMarker(context.Background(), entities.Marker{Kind: valueobjects.MarkerFocus, ThreadID: "t1", UserID: "alice"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, errors.IsNotFound(wrapped.DeleteThread(context.Background(), "t1")))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "store.find_marker", spans[0].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RemoteCalls.WithLabelValues("delete_thread", string(errors.ErrorTypeNotFound))))
	store.AssertExpectations(t)
}

func TestInstrumentedPublisher_CountsPerEvent(t *testing.T) {
	c := NewCollector("test")
	next := &mocks.EventPublisher{}
	next.On("PublishBatch", mock.Anything, mock.Anything).Return(assert.AnError)
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	err := NewInstrumentedPublisher(next, c).PublishBatch(context.Background(), []events.DomainEvent{
		events.NewUploadDeleted("u1", "alice", at),
		events.NewUploadDeleted("u2", "alice", at),
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.EventsPublished.WithLabelValues(events.TypeUploadDeleted, "error")))
}

func TestDefaultSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, defaultSampleRate("development"))
	assert.Less(t, defaultSampleRate("production"), defaultSampleRate("staging"))
}

func TestNoopTracing(t *testing.T) {
	tp := NoopTracing()
	_, span := tp.Tracer().Start(context.Background(), "x")
	span.End()
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.False(t, span.SpanContext().IsValid())
}

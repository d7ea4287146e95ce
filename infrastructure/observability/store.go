package observability

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// InstrumentedFactory wraps every store it hands out with spans and
// remote call metrics.
type InstrumentedFactory struct {
	next      ports.StoreFactory
	tracer    trace.Tracer
	collector *Collector
}

var _ ports.StoreFactory = (*InstrumentedFactory)(nil)

// NewInstrumentedFactory decorates next
func NewInstrumentedFactory(next ports.StoreFactory, tracer trace.Tracer, collector *Collector) *InstrumentedFactory {
	return &InstrumentedFactory{next: next, tracer: tracer, collector: collector}
}

// ForSession implements ports.StoreFactory
func (f *InstrumentedFactory) ForSession(session *auth.Session) (ports.Store, error) {
	store, err := f.next.ForSession(session)
	if err != nil {
		return nil, err
	}
	return &instrumentedStore{next: store, tracer: f.tracer, collector: f.collector}, nil
}

// Ping implements ports.StoreFactory
func (f *InstrumentedFactory) Ping(ctx context.Context) (err error) {
	ctx, done := observe(ctx, f.tracer, f.collector, "ping")
	defer func() { done(err) }()
	return f.next.Ping(ctx)
}

type instrumentedStore struct {
	next      ports.Store
	tracer    trace.Tracer
	collector *Collector
}

var _ ports.Store = (*instrumentedStore)(nil)

// observe starts a client span for one remote operation. The returned
// function ends it and records the outcome.
func observe(ctx context.Context, tracer trace.Tracer, collector *Collector, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "store."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("store.operation", operation))...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if collector != nil {
			collector.RecordRemote(operation, time.Since(start), err)
		}
	}
}

func (s *instrumentedStore) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	return observe(ctx, s.tracer, s.collector, operation, attrs...)
}

func (s *instrumentedStore) ListUploads(ctx context.Context, userID string) (out []entities.UploadRecord, err error) {
	ctx, done := s.observe(ctx, "list_uploads")
	defer func() { done(err) }()
	return s.next.ListUploads(ctx, userID)
}

func (s *instrumentedStore) InsertUpload(ctx context.Context, record *entities.UploadRecord) (out *entities.UploadRecord, err error) {
	ctx, done := s.observe(ctx, "insert_upload")
	defer func() { done(err) }()
	return s.next.InsertUpload(ctx, record)
}

func (s *instrumentedStore) DeleteUpload(ctx context.Context, userID, id string) (err error) {
	ctx, done := s.observe(ctx, "delete_upload", attribute.String("upload.id", id))
	defer func() { done(err) }()
	return s.next.DeleteUpload(ctx, userID, id)
}

func (s *instrumentedStore) ListThreads(ctx context.Context) (out []entities.ThreadView, err error) {
	ctx, done := s.observe(ctx, "list_threads")
	defer func() { done(err) }()
	return s.next.ListThreads(ctx)
}

func (s *instrumentedStore) GetThread(ctx context.Context, id string) (out *entities.ThreadView, err error) {
	ctx, done := s.observe(ctx, "get_thread", attribute.String("thread.id", id))
	defer func() { done(err) }()
	return s.next.GetThread(ctx, id)
}

func (s *instrumentedStore) ListMarkedThreads(ctx context.Context, kind valueobjects.MarkerKind, userID string) (out []entities.ThreadView, err error) {
	ctx, done := s.observe(ctx, "list_marked_threads", attribute.String("marker.kind", string(kind)))
	defer func() { done(err) }()
	return s.next.ListMarkedThreads(ctx, kind, userID)
}

func (s *instrumentedStore) InsertThread(ctx context.Context, thread *entities.DiscussionThread) (out *entities.ThreadView, err error) {
	ctx, done := s.observe(ctx, "insert_thread")
	defer func() { done(err) }()
	return s.next.InsertThread(ctx, thread)
}

func (s *instrumentedStore) DeleteThread(ctx context.Context, id string) (err error) {
	ctx, done := s.observe(ctx, "delete_thread", attribute.String("thread.id", id))
	defer func() { done(err) }()
	return s.next.DeleteThread(ctx, id)
}

func (s *instrumentedStore) ListComments(ctx context.Context, threadID string) (out []entities.CommentView, err error) {
	ctx, done := s.observe(ctx, "list_comments", attribute.String("thread.id", threadID))
	defer func() { done(err) }()
	return s.next.ListComments(ctx, threadID)
}

func (s *instrumentedStore) InsertComment(ctx context.Context, comment *entities.DiscussionComment) (out *entities.CommentView, err error) {
	ctx, done := s.observe(ctx, "insert_comment")
	defer func() { done(err) }()
	return s.next.InsertComment(ctx, comment)
}

func (s *instrumentedStore) FindMarker(ctx context.Context, marker entities.Marker) (found bool, err error) {
	ctx, done := s.observe(ctx, "find_marker", attribute.String("marker.kind", string(marker.Kind)))
	defer func() { done(err) }()
	return s.next.FindMarker(ctx, marker)
}

func (s *instrumentedStore) InsertMarker(ctx context.Context, marker entities.Marker) (err error) {
	ctx, done := s.observe(ctx, "insert_marker", attribute.String("marker.kind", string(marker.Kind)))
	defer func() { done(err) }()
	return s.next.InsertMarker(ctx, marker)
}

func (s *instrumentedStore) DeleteMarker(ctx context.Context, marker entities.Marker) (err error) {
	ctx, done := s.observe(ctx, "delete_marker", attribute.String("marker.kind", string(marker.Kind)))
	defer func() { done(err) }()
	return s.next.DeleteMarker(ctx, marker)
}

func (s *instrumentedStore) GetProfile(ctx context.Context, userID string) (out *entities.Profile, err error) {
	ctx, done := s.observe(ctx, "get_profile")
	defer func() { done(err) }()
	return s.next.GetProfile(ctx, userID)
}

func (s *instrumentedStore) PutObject(ctx context.Context, key string, content io.Reader, contentType string) (err error) {
	ctx, done := s.observe(ctx, "put_object", attribute.String("object.content_type", contentType))
	defer func() { done(err) }()
	return s.next.PutObject(ctx, key, content, contentType)
}

func (s *instrumentedStore) PublicURL(key string) string {
	return s.next.PublicURL(key)
}

func (s *instrumentedStore) RemoveObject(ctx context.Context, key string) (err error) {
	ctx, done := s.observe(ctx, "remove_object")
	defer func() { done(err) }()
	return s.next.RemoveObject(ctx, key)
}

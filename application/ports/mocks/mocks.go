// Package mocks holds testify mocks for the application ports.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// Store mocks ports.Store
type Store struct {
	mock.Mock
}

var _ ports.Store = (*Store)(nil)

func (m *Store) ListUploads(ctx context.Context, userID string) ([]entities.UploadRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.UploadRecord), args.Error(1)
}

func (m *Store) InsertUpload(ctx context.Context, record *entities.UploadRecord) (*entities.UploadRecord, error) {
	args := m.Called(ctx, record)
	if fn, ok := args.Get(0).(func(context.Context, *entities.UploadRecord) *entities.UploadRecord); ok {
		return fn(ctx, record), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UploadRecord), args.Error(1)
}

func (m *Store) DeleteUpload(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *Store) ListThreads(ctx context.Context) ([]entities.ThreadView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ThreadView), args.Error(1)
}

func (m *Store) GetThread(ctx context.Context, id string) (*entities.ThreadView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ThreadView), args.Error(1)
}

func (m *Store) ListMarkedThreads(ctx context.Context, kind valueobjects.MarkerKind, userID string) ([]entities.ThreadView, error) {
	args := m.Called(ctx, kind, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ThreadView), args.Error(1)
}

func (m *Store) InsertThread(ctx context.Context, thread *entities.DiscussionThread) (*entities.ThreadView, error) {
	args := m.Called(ctx, thread)
	if fn, ok := args.Get(0).(func(context.Context, *entities.DiscussionThread) *entities.ThreadView); ok {
		return fn(ctx, thread), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ThreadView), args.Error(1)
}

func (m *Store) DeleteThread(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Store) ListComments(ctx context.Context, threadID string) ([]entities.CommentView, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.CommentView), args.Error(1)
}

func (m *Store) InsertComment(ctx context.Context, comment *entities.DiscussionComment) (*entities.CommentView, error) {
	args := m.Called(ctx, comment)
	if fn, ok := args.Get(0).(func(context.Context, *entities.DiscussionComment) *entities.CommentView); ok {
		return fn(ctx, comment), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CommentView), args.Error(1)
}

func (m *Store) FindMarker(ctx context.Context, marker entities.Marker) (bool, error) {
	args := m.Called(ctx, marker)
	return args.Bool(0), args.Error(1)
}

func (m *Store) InsertMarker(ctx context.Context, marker entities.Marker) error {
	return m.Called(ctx, marker).Error(0)
}

func (m *Store) DeleteMarker(ctx context.Context, marker entities.Marker) error {
	return m.Called(ctx, marker).Error(0)
}

func (m *Store) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *Store) PutObject(ctx context.Context, key string, content io.Reader, contentType string) error {
	return m.Called(ctx, key, content, contentType).Error(0)
}

func (m *Store) PublicURL(key string) string {
	return m.Called(key).String(0)
}

func (m *Store) RemoveObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// StoreFactory hands out the same store for every session
type StoreFactory struct {
	mock.Mock
}

var _ ports.StoreFactory = (*StoreFactory)(nil)

func (m *StoreFactory) ForSession(session *auth.Session) (ports.Store, error) {
	args := m.Called(session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Store), args.Error(1)
}

func (m *StoreFactory) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// IdentityProvider mocks ports.IdentityProvider
type IdentityProvider struct {
	mock.Mock
}

var _ ports.IdentityProvider = (*IdentityProvider)(nil)

func (m *IdentityProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *IdentityProvider) Resolve(ctx context.Context, accessToken string) (*auth.Session, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *IdentityProvider) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *IdentityProvider) SignOut(ctx context.Context, session *auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

// EventPublisher mocks ports.EventPublisher
type EventPublisher struct {
	mock.Mock
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

func (m *EventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *EventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

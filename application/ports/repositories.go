package ports

import (
	"context"
	"io"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// UploadStore persists analysis records
type UploadStore interface {
	// ListUploads returns the user's records, newest first
	ListUploads(ctx context.Context, userID string) ([]entities.UploadRecord, error)

	// InsertUpload stores a record and returns it with ID and CreatedAt assigned
	InsertUpload(ctx context.Context, record *entities.UploadRecord) (*entities.UploadRecord, error)

	// DeleteUpload removes one of the user's records
	DeleteUpload(ctx context.Context, userID, id string) error
}

// ThreadReadModel returns threads joined with their author, comments and
// markers in a single read.
type ThreadReadModel interface {
	// ListThreads returns all threads, newest first
	ListThreads(ctx context.Context) ([]entities.ThreadView, error)

	// GetThread returns one thread or a not-found error
	GetThread(ctx context.Context, id string) (*entities.ThreadView, error)

	// ListMarkedThreads returns the threads userID marked with kind, newest first
	ListMarkedThreads(ctx context.Context, kind valueobjects.MarkerKind, userID string) ([]entities.ThreadView, error)
}

// ThreadStore adds the write side to the thread read model
type ThreadStore interface {
	ThreadReadModel

	// InsertThread stores a thread and returns it joined with its author
	InsertThread(ctx context.Context, thread *entities.DiscussionThread) (*entities.ThreadView, error)

	// DeleteThread removes a thread
	DeleteThread(ctx context.Context, id string) error
}

// CommentStore persists thread comments
type CommentStore interface {
	// ListComments returns a thread's comments, oldest first
	ListComments(ctx context.Context, threadID string) ([]entities.CommentView, error)

	// InsertComment stores a comment and returns it joined with its author
	InsertComment(ctx context.Context, comment *entities.DiscussionComment) (*entities.CommentView, error)
}

// MarkerStore persists favorite and focus markers. A missing marker is not
// an error.
type MarkerStore interface {
	FindMarker(ctx context.Context, marker entities.Marker) (bool, error)
	InsertMarker(ctx context.Context, marker entities.Marker) error
	DeleteMarker(ctx context.Context, marker entities.Marker) error
}

// ProfileStore reads public user profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*entities.Profile, error)
}

// ObjectStore holds discussion images in a public bucket
type ObjectStore interface {
	// PutObject uploads content under key
	PutObject(ctx context.Context, key string, content io.Reader, contentType string) error

	// PublicURL returns the public address of key
	PublicURL(key string) string

	// RemoveObject deletes key
	RemoveObject(ctx context.Context, key string) error
}

// Store is everything a workspace reads and writes, bound to one session
type Store interface {
	UploadStore
	ThreadStore
	CommentStore
	MarkerStore
	ProfileStore
	ObjectStore
}

// StoreFactory binds a store to the session's credentials so that the
// remote row-level policies see the acting user.
type StoreFactory interface {
	ForSession(session *auth.Session) (Store, error)
	Ping(ctx context.Context) error
}

// IdentityProvider signs users in and resolves access tokens to sessions
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	Resolve(ctx context.Context, accessToken string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	SignOut(ctx context.Context, session *auth.Session) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

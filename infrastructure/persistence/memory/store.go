// Package memory is an in-process rendition of the remote store. It keeps
// the same row ownership rules as the hosted policies so that workspaces
// behave the same against it, and backs tests and STORE_BACKEND=memory.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func policyViolation() error {
	return pkgerrors.NewForbiddenError("new row violates row-level security policy")
}

// DB is the shared data behind every session-bound store
type DB struct {
	mu       sync.RWMutex
	uploads  []entities.UploadRecord
	threads  []entities.DiscussionThread
	comments []entities.DiscussionComment
	markers  map[string]entities.Marker
	profiles map[string]entities.Profile
	objects  map[string]object

	bucket string
	now    func() time.Time
}

type object struct {
	content     []byte
	contentType string
}

// NewDB creates an empty database whose objects live in bucket
func NewDB(bucket string) *DB {
	if bucket == "" {
		bucket = "discussion-images"
	}
	return &DB{
		markers:  make(map[string]entities.Marker),
		profiles: make(map[string]entities.Profile),
		objects:  make(map[string]object),
		bucket:   bucket,
		now:      time.Now,
	}
}

// PutProfile creates or replaces a profile. Profiles are managed outside
// this service, so there is no store method for it.
func (db *DB) PutProfile(p entities.Profile) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles[p.UserID] = p
}

// Object returns a stored object, for inspection in tests
func (db *DB) Object(key string) ([]byte, string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	o, ok := db.objects[key]
	return o.content, o.contentType, ok
}

// Factory hands out stores bound to a session's user
type Factory struct {
	db *DB
}

var _ ports.StoreFactory = (*Factory)(nil)

// NewFactory creates a factory over db
func NewFactory(db *DB) *Factory {
	return &Factory{db: db}
}

// ForSession returns a store acting as the session user. A nil session acts
// anonymously and may only read public data.
func (f *Factory) ForSession(s *auth.Session) (ports.Store, error) {
	st := &Store{db: f.db}
	if s.Authenticated() {
		st.userID = s.UserID
	}
	return st, nil
}

// Ping always succeeds
func (f *Factory) Ping(context.Context) error { return nil }

// Store is the view of the database one user is allowed to see
type Store struct {
	db     *DB
	userID string
}

var _ ports.Store = (*Store)(nil)

func (s *Store) requireUser(owner string) error {
	if s.userID == "" {
		return pkgerrors.NewUnauthorizedError("not authenticated")
	}
	if owner != s.userID {
		return policyViolation()
	}
	return nil
}

// ListUploads returns the user's records, newest first
func (s *Store) ListUploads(ctx context.Context, userID string) ([]entities.UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []entities.UploadRecord{}
	if userID != s.userID {
		return out, nil
	}
	for i := len(s.db.uploads) - 1; i >= 0; i-- {
		if s.db.uploads[i].UserID == userID {
			out = append(out, s.db.uploads[i])
		}
	}
	return out, nil
}

// InsertUpload stores record with a new ID and creation time
func (s *Store) InsertUpload(ctx context.Context, record *entities.UploadRecord) (*entities.UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireUser(record.UserID); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored := *record
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.db.now().UTC()
	s.db.uploads = append(s.db.uploads, stored)
	return &stored, nil
}

// DeleteUpload removes one of the user's records
func (s *Store) DeleteUpload(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(userID); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i, r := range s.db.uploads {
		if r.ID == id && r.UserID == userID {
			s.db.uploads = append(s.db.uploads[:i], s.db.uploads[i+1:]...)
			return nil
		}
	}
	return pkgerrors.NewNotFoundError("analysis")
}

// ListThreads returns every thread with its joins, newest first
func (s *Store) ListThreads(ctx context.Context) ([]entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]entities.ThreadView, 0, len(s.db.threads))
	for i := len(s.db.threads) - 1; i >= 0; i-- {
		out = append(out, s.db.viewLocked(s.db.threads[i]))
	}
	return out, nil
}

// GetThread returns one thread with its joins
func (s *Store) GetThread(ctx context.Context, id string) (*entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, t := range s.db.threads {
		if t.ID == id {
			v := s.db.viewLocked(t)
			return &v, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("discussion")
}

// ListMarkedThreads returns the threads userID marked with kind, newest first
func (s *Store) ListMarkedThreads(ctx context.Context, kind valueobjects.MarkerKind, userID string) ([]entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := []entities.ThreadView{}
	for i := len(s.db.threads) - 1; i >= 0; i-- {
		t := s.db.threads[i]
		if _, ok := s.db.markers[entities.Marker{Kind: kind, UserID: userID, ThreadID: t.ID}.Key()]; ok {
			out = append(out, s.db.viewLocked(t))
		}
	}
	return out, nil
}

// InsertThread stores a thread authored by the acting user
func (s *Store) InsertThread(ctx context.Context, thread *entities.DiscussionThread) (*entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireUser(thread.UserID); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored := *thread
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.db.now().UTC()
	s.db.threads = append(s.db.threads, stored)
	v := s.db.viewLocked(stored)
	return &v, nil
}

// DeleteThread removes a thread the acting user authored, together with its
// comments and markers
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.userID == "" {
		return pkgerrors.NewUnauthorizedError("not authenticated")
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	idx := -1
	for i, t := range s.db.threads {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return pkgerrors.NewNotFoundError("discussion")
	}
	if !s.db.threads[idx].IsOwnedBy(s.userID) {
		return policyViolation()
	}

	s.db.threads = append(s.db.threads[:idx], s.db.threads[idx+1:]...)
	kept := s.db.comments[:0]
	for _, c := range s.db.comments {
		if c.ThreadID != id {
			kept = append(kept, c)
		}
	}
	s.db.comments = kept
	for key, m := range s.db.markers {
		if m.ThreadID == id {
			delete(s.db.markers, key)
		}
	}
	return nil
}

// ListComments returns a thread's comments, oldest first
func (s *Store) ListComments(ctx context.Context, threadID string) ([]entities.CommentView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.commentsLocked(threadID), nil
}

// InsertComment stores a comment by the acting user on an existing thread
func (s *Store) InsertComment(ctx context.Context, comment *entities.DiscussionComment) (*entities.CommentView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireUser(comment.UserID); err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if !s.db.threadExistsLocked(comment.ThreadID) {
		return nil, pkgerrors.NewNotFoundError("discussion")
	}
	stored := *comment
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.db.now().UTC()
	s.db.comments = append(s.db.comments, stored)
	return &entities.CommentView{DiscussionComment: stored, Author: s.db.profileLocked(stored.UserID)}, nil
}

// FindMarker reports whether the marker exists
func (s *Store) FindMarker(ctx context.Context, marker entities.Marker) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.markers[marker.Key()]
	return ok, nil
}

// InsertMarker adds the marker. A duplicate is a conflict.
func (s *Store) InsertMarker(ctx context.Context, marker entities.Marker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(marker.UserID); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if !s.db.threadExistsLocked(marker.ThreadID) {
		return pkgerrors.NewNotFoundError("discussion")
	}
	if _, ok := s.db.markers[marker.Key()]; ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("duplicate key value violates unique constraint on %s", marker.Kind.Table())).
			WithCode("23505")
	}
	s.db.markers[marker.Key()] = marker
	return nil
}

// DeleteMarker removes the marker. Removing a missing marker succeeds.
func (s *Store) DeleteMarker(ctx context.Context, marker entities.Marker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(marker.UserID); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.markers, marker.Key())
	return nil
}

// GetProfile returns a user's public profile
func (s *Store) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if p := s.db.profileLocked(userID); p != nil {
		return p, nil
	}
	return nil, pkgerrors.NewNotFoundError("profile")
}

// PutObject stores content under key. Existing keys are not overwritten.
func (s *Store) PutObject(ctx context.Context, key string, content io.Reader, contentType string) error {
	if s.userID == "" {
		return pkgerrors.NewUnauthorizedError("not authenticated")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return fmt.Errorf("read object content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.objects[key]; ok {
		return pkgerrors.NewValidationError("The resource already exists").WithCode("409")
	}
	s.db.objects[key] = object{content: buf.Bytes(), contentType: contentType}
	return nil
}

// PublicURL returns the address the object would be served from
func (s *Store) PublicURL(key string) string {
	return "memory://" + s.db.bucket + "/" + key
}

// RemoveObject deletes key. Removing a missing key succeeds.
func (s *Store) RemoveObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.userID == "" {
		return pkgerrors.NewUnauthorizedError("not authenticated")
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.objects, key)
	return nil
}

func (db *DB) viewLocked(t entities.DiscussionThread) entities.ThreadView {
	v := entities.NewThreadView(t, db.profileLocked(t.UserID))
	v.Comments = db.commentsLocked(t.ID)
	keys := make([]string, 0)
	for key, m := range db.markers {
		if m.ThreadID == t.ID {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		m := db.markers[key]
		v.SetMarked(m.Kind, m.UserID, true)
	}
	return v
}

func (db *DB) commentsLocked(threadID string) []entities.CommentView {
	out := []entities.CommentView{}
	for _, c := range db.comments {
		if c.ThreadID == threadID {
			out = append(out, entities.CommentView{DiscussionComment: c, Author: db.profileLocked(c.UserID)})
		}
	}
	return out
}

func (db *DB) profileLocked(userID string) *entities.Profile {
	p, ok := db.profiles[userID]
	if !ok {
		return nil
	}
	return &p
}

func (db *DB) threadExistsLocked(id string) bool {
	for _, t := range db.threads {
		if t.ID == id {
			return true
		}
	}
	return false
}

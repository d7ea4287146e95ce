// Package supabase implements the store ports over the hosted PostgREST and
// Storage APIs. Every store carries the session's access token so that the
// project's row-level policies see the acting user.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// PostgREST and Postgres error codes the store maps to typed errors
const (
	codeNoRows         = "PGRST116"
	codeJWTExpired     = "PGRST301"
	codeInsufficient   = "42501"
	codeUniqueViolated = "23505"
	codeForeignKey     = "23503"
)

var executeError = regexp.MustCompile(`^\(([^)]*)\) (.*)$`)

// FactoryConfig holds the project coordinates
type FactoryConfig struct {
	URL     string
	AnonKey string
	Bucket  string
	Timeout time.Duration
}

// Factory creates session-bound stores
type Factory struct {
	url       string
	anonKey   string
	bucket    string
	transport http.RoundTripper
}

var _ ports.StoreFactory = (*Factory)(nil)

// NewFactory validates cfg and prepares the shared HTTP transport
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase url and anon key are required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "discussion-images"
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Timeout > 0 {
		transport.ResponseHeaderTimeout = cfg.Timeout
	}
	return &Factory{
		url:       strings.TrimRight(cfg.URL, "/"),
		anonKey:   cfg.AnonKey,
		bucket:    cfg.Bucket,
		transport: transport,
	}, nil
}

// ForSession returns a store that authenticates as the session user, or with
// the anonymous key when s is nil.
func (f *Factory) ForSession(s *auth.Session) (ports.Store, error) {
	token := f.anonKey
	st := &Store{factory: f}
	if s.Authenticated() {
		if s.AccessToken == "" {
			return nil, pkgerrors.NewUnauthorizedError("session has no access token")
		}
		token = s.AccessToken
		st.userID = s.UserID
	}
	st.token = token
	st.rest = f.restClient(token)
	if st.rest.ClientError != nil {
		return nil, st.rest.ClientError
	}
	return st, nil
}

// Ping checks that the REST endpoint answers
func (f *Factory) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client := f.restClient(f.anonKey)
	if !client.Ping() {
		return fmt.Errorf("supabase rest ping: %w", client.ClientError)
	}
	return nil
}

func (f *Factory) restClient(token string) *postgrest.Client {
	client := postgrest.NewClient(f.url+supa.REST_URL, "public", map[string]string{
		"apikey":        f.anonKey,
		"Authorization": "Bearer " + token,
	})
	if client.Transport != nil {
		client.Transport.Parent = f.transport
	}
	return client
}

// storage returns a fresh client because upload options are written into
// the client's shared headers.
func (f *Factory) storage(token string) *storage_go.Client {
	return storage_go.NewClient(f.url+supa.STORGAGE_URL, token, map[string]string{"apikey": f.anonKey})
}

// Store talks to the project as one user
type Store struct {
	factory *Factory
	rest    *postgrest.Client
	token   string
	userID  string
}

var _ ports.Store = (*Store)(nil)

func (s *Store) requireUser() error {
	if s.userID == "" {
		return pkgerrors.NewUnauthorizedError("not authenticated")
	}
	return nil
}

// Uploads

// ListUploads returns the user's records, newest first
func (s *Store) ListUploads(ctx context.Context, userID string) ([]entities.UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []entities.UploadRecord
	_, err := s.rest.From(tableUploads).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify(err, "analysis")
	}
	if rows == nil {
		rows = []entities.UploadRecord{}
	}
	return rows, nil
}

// InsertUpload stores a completed record and returns the stored row
func (s *Store) InsertUpload(ctx context.Context, record *entities.UploadRecord) (*entities.UploadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	var stored entities.UploadRecord
	_, err := s.rest.From(tableUploads).
		Insert(newUploadInsert(record), false, "", "representation", "").
		Single().
		ExecuteTo(&stored)
	if err != nil {
		return nil, classify(err, "analysis")
	}
	return &stored, nil
}

// DeleteUpload removes a record. A delete that matched nothing is reported
// as not found, which is also what a policy-filtered delete looks like.
func (s *Store) DeleteUpload(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(); err != nil {
		return err
	}
	body, _, err := s.rest.From(tableUploads).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return classify(err, "analysis")
	}
	return requireAffected(body, "analysis")
}

// Threads

// ListThreads returns every thread with its joins, newest first
func (s *Store) ListThreads(ctx context.Context) ([]entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []threadRow
	_, err := s.rest.From(tableThreads).
		Select(threadSelect, "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Order("created_at", &postgrest.OrderOpts{Ascending: true, ForeignTable: tableComments}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify(err, "discussion")
	}
	return views(rows), nil
}

// GetThread returns one thread with its joins
func (s *Store) GetThread(ctx context.Context, id string) (*entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var row threadRow
	_, err := s.rest.From(tableThreads).
		Select(threadSelect, "", false).
		Eq("id", id).
		Order("created_at", &postgrest.OrderOpts{Ascending: true, ForeignTable: tableComments}).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, classify(err, "discussion")
	}
	v := row.view()
	return &v, nil
}

// ListMarkedThreads reads the marker table with its thread embedded
func (s *Store) ListMarkedThreads(ctx context.Context, kind valueobjects.MarkerKind, userID string) ([]entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []markedRow
	_, err := s.rest.From(kind.Table()).
		Select(tableThreads+"("+threadSelect+")", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify(err, string(kind)+" discussions")
	}

	threads := make([]threadRow, 0, len(rows))
	for _, r := range rows {
		if r.Thread != nil {
			threads = append(threads, *r.Thread)
		}
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})
	return views(threads), nil
}

// InsertThread stores a thread and joins the author profile
func (s *Store) InsertThread(ctx context.Context, thread *entities.DiscussionThread) (*entities.ThreadView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	var row threadRow
	_, err := s.rest.From(tableThreads).
		Insert(threadInsert{
			Title:    thread.Title,
			Content:  thread.Content,
			ImageURL: thread.ImageURL,
			UserID:   thread.UserID,
		}, false, "", "representation", "").
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, classify(err, "discussion")
	}

	v := row.view()
	v.Author = s.authorOf(ctx, row.UserID)
	return &v, nil
}

// DeleteThread removes a thread. Comments and markers go with it through
// the foreign keys.
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(); err != nil {
		return err
	}
	body, _, err := s.rest.From(tableThreads).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return classify(err, "discussion")
	}
	return requireAffected(body, "discussion")
}

// Comments

// ListComments returns a thread's comments, oldest first
func (s *Store) ListComments(ctx context.Context, threadID string) ([]entities.CommentView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []commentRow
	_, err := s.rest.From(tableComments).
		Select(commentSelect, "", false).
		Eq("thread_id", threadID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify(err, "comments")
	}
	out := make([]entities.CommentView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, nil
}

// InsertComment stores a comment and joins the author profile
func (s *Store) InsertComment(ctx context.Context, comment *entities.DiscussionComment) (*entities.CommentView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	var row commentRow
	_, err := s.rest.From(tableComments).
		Insert(commentInsert{
			ThreadID: comment.ThreadID,
			UserID:   comment.UserID,
			Content:  comment.Content,
		}, false, "", "representation", "").
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, classify(err, "discussion")
	}
	v := row.view()
	v.Author = s.authorOf(ctx, row.UserID)
	return &v, nil
}

// Markers

// FindMarker reports whether the marker row exists
func (s *Store) FindMarker(ctx context.Context, marker entities.Marker) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, _, err := s.rest.From(marker.Kind.Table()).
		Select("id", "", false).
		Eq("user_id", marker.UserID).
		Eq("thread_id", marker.ThreadID).
		Single().
		Execute()
	if err != nil {
		if errorCode(err) == codeNoRows {
			return false, nil
		}
		return false, classify(err, string(marker.Kind)+" status")
	}
	return true, nil
}

// InsertMarker adds the marker row
func (s *Store) InsertMarker(ctx context.Context, marker entities.Marker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(); err != nil {
		return err
	}
	_, _, err := s.rest.From(marker.Kind.Table()).
		Insert(markerInsert{UserID: marker.UserID, ThreadID: marker.ThreadID}, false, "", "minimal", "").
		Execute()
	if err != nil {
		return classify(err, "discussion")
	}
	return nil
}

// DeleteMarker removes the marker row. Removing a missing row succeeds.
func (s *Store) DeleteMarker(ctx context.Context, marker entities.Marker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(); err != nil {
		return err
	}
	_, _, err := s.rest.From(marker.Kind.Table()).
		Delete("minimal", "").
		Eq("user_id", marker.UserID).
		Eq("thread_id", marker.ThreadID).
		Execute()
	if err != nil {
		return classify(err, string(marker.Kind)+" status")
	}
	return nil
}

// Profiles

type profileRow struct {
	ID        string  `json:"id"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Email     string  `json:"email"`
}

// GetProfile returns a user's public profile
func (s *Store) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var row profileRow
	_, err := s.rest.From(tableProfiles).
		Select("id, full_name, avatar_url, email", "", false).
		Eq("id", userID).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, classify(err, "profile")
	}
	return &entities.Profile{UserID: row.ID, FullName: row.FullName, AvatarURL: row.AvatarURL, Email: row.Email}, nil
}

// authorOf looks up the profile joined onto freshly inserted rows. A
// missing profile leaves the author empty.
func (s *Store) authorOf(ctx context.Context, userID string) *entities.Profile {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil
	}
	return p
}

// Objects

// PutObject uploads content to the image bucket without overwriting
func (s *Store) PutObject(ctx context.Context, key string, content io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(); err != nil {
		return err
	}
	upsert := false
	_, err := s.factory.storage(s.token).UploadFile(s.factory.bucket, key, content, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}

// PublicURL returns the public bucket address of key
func (s *Store) PublicURL(key string) string {
	return s.factory.storage(s.token).GetPublicUrl(s.factory.bucket, key).SignedURL
}

// RemoveObject deletes key from the image bucket
func (s *Store) RemoveObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireUser(); err != nil {
		return err
	}
	if _, err := s.factory.storage(s.token).RemoveFile(s.factory.bucket, []string{key}); err != nil {
		return storageError(err)
	}
	return nil
}

func views(rows []threadRow) []entities.ThreadView {
	out := make([]entities.ThreadView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out
}

func requireAffected(body []byte, resource string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode delete response: %w", err)
	}
	if len(rows) == 0 {
		return pkgerrors.NewNotFoundError(resource)
	}
	return nil
}

func errorCode(err error) string {
	if m := executeError.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}

// classify turns PostgREST failures into typed errors. Unknown failures are
// returned as they are and typed by the caller.
func classify(err error, resource string) error {
	m := executeError.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	code, message := m[1], m[2]
	switch code {
	case codeNoRows, codeForeignKey:
		return pkgerrors.NewNotFoundError(resource).WithCode(code).WithCause(err)
	case codeInsufficient:
		return pkgerrors.NewForbiddenError(message).WithCode(code).WithCause(err)
	case codeUniqueViolated:
		return pkgerrors.NewValidationError(message).WithCode(code).WithCause(err)
	case codeJWTExpired:
		return pkgerrors.NewUnauthorizedError(message).WithCode(code).WithCause(err)
	}
	return err
}

func storageError(err error) error {
	var se *storage_go.StorageError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Status {
	case http.StatusUnauthorized:
		return pkgerrors.NewUnauthorizedError(se.Message).WithCause(err)
	case http.StatusForbidden:
		return pkgerrors.NewForbiddenError(se.Message).WithCause(err)
	case http.StatusConflict:
		return pkgerrors.NewValidationError(se.Message).WithCode("409").WithCause(err)
	}
	return err
}

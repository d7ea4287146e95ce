package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func storeFor(t *testing.T, f *Factory, userID string) ports.Store {
	t.Helper()
	var s *auth.Session
	if userID != "" {
		s = &auth.Session{UserID: userID}
	}
	st, err := f.ForSession(s)
	require.NoError(t, err)
	return st
}

func newThread(t *testing.T, st ports.Store, userID, title string) *entities.ThreadView {
	t.Helper()
	content, err := valueobjects.NewPostContent(title, "body")
	require.NoError(t, err)
	th, err := entities.NewDiscussionThread(userID, content, nil)
	require.NoError(t, err)
	v, err := st.InsertThread(context.Background(), th)
	require.NoError(t, err)
	return v
}

func TestUploads_AreOwnedAndNewestFirst(t *testing.T) {
	f := NewFactory(NewDB(""))
	ctx := context.Background()
	alice, bob := storeFor(t, f, "alice"), storeFor(t, f, "bob")

	for _, name := range []string{"a.png", "b.png"} {
		rec, err := entities.NewCompletedUpload("alice", name, "upload://"+name, entities.AnalysisResult{CellCount: 1})
		require.NoError(t, err)
		_, err = alice.InsertUpload(ctx, rec)
		require.NoError(t, err)
	}

	got, err := alice.ListUploads(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b.png", got[0].Filename)
	assert.NotEmpty(t, got[0].ID)

	hidden, err := bob.ListUploads(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, hidden)

	err = bob.DeleteUpload(ctx, "alice", got[0].ID)
	assert.True(t, pkgerrors.IsForbidden(err))

	require.NoError(t, alice.DeleteUpload(ctx, "alice", got[0].ID))
	assert.True(t, pkgerrors.IsNotFound(alice.DeleteUpload(ctx, "alice", got[0].ID)))
}

func TestUploads_InsertForAnotherUserIsRejected(t *testing.T) {
	f := NewFactory(NewDB(""))
	rec, err := entities.NewCompletedUpload("alice", "a.png", "upload://a", entities.AnalysisResult{})
	require.NoError(t, err)

	_, err = storeFor(t, f, "bob").InsertUpload(context.Background(), rec)
	assert.True(t, pkgerrors.IsForbidden(err))

	_, err = storeFor(t, f, "").InsertUpload(context.Background(), rec)
	assert.True(t, pkgerrors.IsUnauthorized(err))
}

func TestThreads_JoinsAndCascade(t *testing.T) {
	db := NewDB("")
	name := "Alice A."
	db.PutProfile(entities.Profile{UserID: "alice", FullName: &name})
	f := NewFactory(db)
	ctx := context.Background()
	alice, bob := storeFor(t, f, "alice"), storeFor(t, f, "bob")

	first := newThread(t, alice, "alice", "First")
	second := newThread(t, alice, "alice", "Second")
	assert.Equal(t, "Alice A.", first.Author.DisplayName())

	comment, err := entities.NewDiscussionComment(first.ID, "bob", "nice")
	require.NoError(t, err)
	_, err = bob.InsertComment(ctx, comment)
	require.NoError(t, err)
	marker := entities.Marker{Kind: valueobjects.MarkerFavorite, UserID: "bob", ThreadID: first.ID}
	require.NoError(t, bob.InsertMarker(ctx, marker))
	assert.Error(t, bob.InsertMarker(ctx, marker))

	threads, err := storeFor(t, f, "").ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID)
	assert.Len(t, threads[1].Comments, 1)
	assert.Equal(t, []string{"bob"}, threads[1].FavoritedBy)

	marked, err := bob.ListMarkedThreads(ctx, valueobjects.MarkerFavorite, "bob")
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, first.ID, marked[0].ID)

	assert.True(t, pkgerrors.IsForbidden(bob.DeleteThread(ctx, first.ID)))
	require.NoError(t, alice.DeleteThread(ctx, first.ID))

	found, err := bob.FindMarker(ctx, marker)
	require.NoError(t, err)
	assert.False(t, found)
	comments, err := bob.ListComments(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	_, err = bob.GetThread(ctx, first.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestComments_RequireExistingThread(t *testing.T) {
	f := NewFactory(NewDB(""))
	comment, err := entities.NewDiscussionComment("missing", "bob", "hello")
	require.NoError(t, err)

	_, err = storeFor(t, f, "bob").InsertComment(context.Background(), comment)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestObjects(t *testing.T) {
	db := NewDB("images")
	st := storeFor(t, NewFactory(db), "alice")
	ctx := context.Background()

	require.NoError(t, st.PutObject(ctx, "alice/1.png", strings.NewReader("png"), "image/png"))
	assert.Error(t, st.PutObject(ctx, "alice/1.png", strings.NewReader("again"), "image/png"))
	content, contentType, ok := db.Object("alice/1.png")
	require.True(t, ok)
	assert.Equal(t, "png", string(content))
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, "memory://images/alice/1.png", st.PublicURL("alice/1.png"))

	require.NoError(t, st.RemoveObject(ctx, "alice/1.png"))
	_, _, ok = db.Object("alice/1.png")
	assert.False(t, ok)
}

func TestGetProfile_Missing(t *testing.T) {
	_, err := storeFor(t, NewFactory(NewDB("")), "").GetProfile(context.Background(), "nobody")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storeFor(t, NewFactory(NewDB("")), "alice").ListThreads(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

// Two users working through their own workspaces see each other's threads
// and markers but never each other's analyses.
func TestWorkspacesOverMemoryStore(t *testing.T) {
	factory := NewFactory(NewDB(""))
	registry := workspace.NewRegistry(factory, workspace.Deps{})
	ctx := context.Background()

	alice, err := registry.For(&auth.Session{UserID: "alice", AccessToken: "a"})
	require.NoError(t, err)
	bob, err := registry.For(&auth.Session{UserID: "bob", AccessToken: "b"})
	require.NoError(t, err)

	_, err = alice.Records.Analyze(ctx, entities.FileHandle{Name: "smear.jpg"})
	require.NoError(t, err)
	thread, err := alice.Threads.Create(ctx, workspace.NewThread{Title: "Help", Content: "Odd cells"})
	require.NoError(t, err)

	bobRecords, err := bob.Records.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, bobRecords)

	threads, err := bob.Threads.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)

	present, err := bob.Threads.Marker(thread.ID, valueobjects.MarkerFocus).Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, present)

	aliceView, err := alice.Threads.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, aliceView[0].FocusedBy)

	err = bob.Threads.Delete(ctx, thread.ID)
	assert.True(t, pkgerrors.IsForbidden(err))
}

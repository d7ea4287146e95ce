package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/application/ports/mocks"
	"github.com/kwansinnn/cytosight-all-detect/application/session"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func TestMarkerToggle_DoubleToggleRestoresState(t *testing.T) {
	for _, kind := range valueobjects.AllMarkerKinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t, signedIn("u1"))
			marker := entities.Marker{Kind: kind, UserID: "u1", ThreadID: "t1"}
			f.store.On("FindMarker", mock.Anything, marker).Return(false, nil).Once()
			f.store.On("InsertMarker", mock.Anything, marker).Return(nil).Once()
			f.store.On("FindMarker", mock.Anything, marker).Return(true, nil).Once()
			f.store.On("DeleteMarker", mock.Anything, marker).Return(nil).Once()

			m := f.ws.Threads.Marker("t1", kind)
			first, err := m.Toggle(context.Background())
			require.NoError(t, err)
			second, err := m.Toggle(context.Background())
			require.NoError(t, err)

			assert.True(t, first)
			assert.False(t, second)
			present, known := m.Present()
			assert.False(t, present)
			assert.True(t, known)
		})
	}
}

func TestMarkerToggle_FailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	marker := entities.Marker{Kind: valueobjects.MarkerFocus, UserID: "u1", ThreadID: "t1"}
	f.store.On("FindMarker", mock.Anything, marker).Return(false, nil).Once()
	f.store.On("InsertMarker", mock.Anything, marker).Return(errors.New("conflict")).Once()

	m := f.ws.Threads.Marker("t1", valueobjects.MarkerFocus)
	present, err := m.Toggle(context.Background())

	require.Error(t, err)
	assert.False(t, present)
	assert.True(t, pkgerrors.IsWrite(err))
	assert.Equal(t, "Failed to update focus status", pkgerrors.NotificationFor(err).Description)
	state, known := m.Present()
	assert.False(t, state)
	assert.False(t, known)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestMarkerToggle_RequiresSession(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ws.Threads.Marker("t1", valueobjects.MarkerFavorite).Toggle(context.Background())

	assert.True(t, pkgerrors.IsUnauthorized(err))
	n := pkgerrors.NotificationFor(err)
	assert.Equal(t, "Authentication Required", n.Title)
	assert.Equal(t, "Please sign in to favorite discussions.", n.Description)
	f.store.AssertNotCalled(t, "FindMarker", mock.Anything, mock.Anything)
}

func TestMarkerToggle_Status(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	marker := entities.Marker{Kind: valueobjects.MarkerFavorite, UserID: "u1", ThreadID: "t1"}
	f.store.On("FindMarker", mock.Anything, marker).Return(true, nil).Once()

	present, err := f.ws.Threads.Marker("t1", valueobjects.MarkerFavorite).Status(context.Background())

	require.NoError(t, err)
	assert.True(t, present)
}

func TestMarkerToggle_StatusWithoutSessionIsAbsent(t *testing.T) {
	f := newFixture(t, nil)

	present, err := f.ws.Threads.Marker("t1", valueobjects.MarkerFocus).Status(context.Background())

	require.NoError(t, err)
	assert.False(t, present)
	f.store.AssertNotCalled(t, "FindMarker", mock.Anything, mock.Anything)
}

func TestMarkerToggle_SeededFromThreadAndUpdatesIt(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	v := threadView("t1", "u2")
	v.FavoritedBy = []string{"u1", "u3"}
	f.store.On("ListThreads", mock.Anything).Return([]entities.ThreadView{v}, nil).Once()
	_, err := f.ws.Threads.FetchAll(context.Background())
	require.NoError(t, err)

	m := f.ws.Threads.Marker("t1", valueobjects.MarkerFavorite)
	present, known := m.Present()
	require.True(t, known)
	require.True(t, present)

	marker := entities.Marker{Kind: valueobjects.MarkerFavorite, UserID: "u1", ThreadID: "t1"}
	f.store.On("FindMarker", mock.Anything, marker).Return(true, nil).Once()
	f.store.On("DeleteMarker", mock.Anything, marker).Return(nil).Once()
	_, err = m.Toggle(context.Background())
	require.NoError(t, err)

	got, _ := f.ws.Threads.Get("t1")
	assert.Equal(t, []string{"u3"}, got.FavoritedBy)
}

func TestThreads_FetchKeepsToggleMadeDuringFetch(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	m := f.ws.Threads.Marker("t1", valueobjects.MarkerFocus)
	marker := entities.Marker{Kind: valueobjects.MarkerFocus, UserID: "u1", ThreadID: "t1"}
	f.store.On("FindMarker", mock.Anything, marker).Return(false, nil).Once()
	f.store.On("InsertMarker", mock.Anything, marker).Return(nil).Once()

	f.store.On("ListThreads", mock.Anything).
		Run(func(mock.Arguments) {
			_, err := m.Toggle(context.Background())
			require.NoError(t, err)
		}).
		Return([]entities.ThreadView{threadView("t1", "u2")}, nil).Once()

	got, err := f.ws.Threads.FetchAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got[0].FocusedBy)
	present, _ := m.Present()
	assert.True(t, present)
}

func TestRegistry(t *testing.T) {
	factory := &mocks.StoreFactory{}
	store := &mocks.Store{}
	factory.On("ForSession", mock.Anything).Return(store, nil)
	reg := NewRegistry(factory, Deps{})
	bus := session.NewBus()
	reg.Attach(bus)

	s := signedIn("u1")
	w1, err := reg.For(s)
	require.NoError(t, err)
	w2, err := reg.For(s)
	require.NoError(t, err)
	assert.Same(t, w1, w2)
	assert.Equal(t, 1, reg.Len())

	refreshed := &auth.Session{UserID: "u1", AccessToken: "tok-new"}
	bus.Publish(session.Event{Type: session.TokenRefreshed, Session: refreshed})
	assert.Equal(t, "tok-new", w1.Session().AccessToken)

	anon, err := reg.For(nil)
	require.NoError(t, err)
	assert.Nil(t, anon.Session())
	assert.Equal(t, 1, reg.Len())

	bus.Publish(session.Event{Type: session.SignedOut, Session: refreshed})
	assert.Equal(t, 0, reg.Len())
	factory.AssertNumberOfCalls(t, "ForSession", 3)
}

func TestRegistry_FactoryFailure(t *testing.T) {
	factory := &mocks.StoreFactory{}
	factory.On("ForSession", mock.Anything).Return(nil, errors.New("no url"))
	reg := NewRegistry(factory, Deps{})

	_, err := reg.For(signedIn("u1"))

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, 0, reg.Len())
}

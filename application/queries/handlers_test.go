package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/application/ports/mocks"
	"github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func setup(t *testing.T) (*bus.QueryBus, *mocks.Store) {
	t.Helper()
	store := &mocks.Store{}
	factory := &mocks.StoreFactory{}
	factory.On("ForSession", mock.Anything).Return(store, nil)

	b := bus.NewQueryBus()
	require.NoError(t, RegisterHandlers(b, NewHandler(workspace.NewRegistry(factory, workspace.Deps{}), nil)))
	t.Cleanup(func() { store.AssertExpectations(t) })
	return b, store
}

func session(userID string) *auth.Session {
	return &auth.Session{UserID: userID, Email: userID + "@lab.test", AccessToken: "tok-" + userID}
}

func record(id string, confidence float64, cells int) entities.UploadRecord {
	rec, err := entities.NewCompletedUpload("u1", id+".jpg", "upload://"+id, entities.AnalysisResult{
		CellCount: cells, CellTypes: []string{"Lymphocytes"}, ConfidenceScore: confidence,
	})
	if err != nil {
		panic(err)
	}
	rec.ID = id
	return *rec
}

func TestListUploads(t *testing.T) {
	b, store := setup(t)
	store.On("ListUploads", mock.Anything, "u1").Return([]entities.UploadRecord{record("r1", 0.9, 10)}, nil).Once()

	got, err := b.Ask(context.Background(), ListUploadsQuery{Session: session("u1")})

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListUploads_Anonymous(t *testing.T) {
	b, _ := setup(t)

	_, err := b.Ask(context.Background(), ListUploadsQuery{})

	assert.True(t, pkgerrors.IsUnauthorized(err))
}

func TestUploadSummary_FetchesOnlyWhenEmptyOrRefreshed(t *testing.T) {
	b, store := setup(t)
	s := session("u1")
	store.On("ListUploads", mock.Anything, "u1").
		Return([]entities.UploadRecord{record("r1", 0.9, 100), record("r2", 0.6, 50)}, nil).Twice()

	first, err := b.Ask(context.Background(), UploadSummaryQuery{Session: s})
	require.NoError(t, err)
	_, err = b.Ask(context.Background(), UploadSummaryQuery{Session: s})
	require.NoError(t, err)
	_, err = b.Ask(context.Background(), UploadSummaryQuery{Session: s, Refresh: true})
	require.NoError(t, err)

	summary := first.(workspace.Summary)
	assert.Equal(t, 2, summary.TotalUploads)
	assert.Equal(t, 150, summary.TotalCells)
	assert.Equal(t, 75, summary.AvgConfidence)
}

func TestListThreads_Public(t *testing.T) {
	b, store := setup(t)
	store.On("ListThreads", mock.Anything).Return([]entities.ThreadView{}, nil).Once()

	got, err := b.Ask(context.Background(), ListThreadsQuery{})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMarkedThreads_UnknownKind(t *testing.T) {
	b, _ := setup(t)

	_, err := b.Ask(context.Background(), ListMarkedThreadsQuery{Session: session("u1"), Kind: "starred"})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestListComments(t *testing.T) {
	b, store := setup(t)
	store.On("ListComments", mock.Anything, "t1").Return([]entities.CommentView{
		{DiscussionComment: entities.DiscussionComment{ID: "c1", ThreadID: "t1"}},
	}, nil).Once()

	got, err := b.Ask(context.Background(), ListCommentsQuery{Session: session("u1"), ThreadID: "t1"})

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMarkerStatus(t *testing.T) {
	b, store := setup(t)
	marker := entities.Marker{Kind: valueobjects.MarkerFocus, UserID: "u1", ThreadID: "t1"}
	store.On("FindMarker", mock.Anything, marker).Return(true, nil).Once()

	got, err := b.Ask(context.Background(), MarkerStatusQuery{Session: session("u1"), ThreadID: "t1", Kind: valueobjects.MarkerFocus})

	require.NoError(t, err)
	assert.True(t, got.(*MarkerStatus).Present)
}

func TestReportPreview(t *testing.T) {
	b, store := setup(t)
	store.On("ListUploads", mock.Anything, "u1").
		Return([]entities.UploadRecord{record("r1", 0.9, 100), record("r2", 0.5, 10)}, nil).Once()

	got, err := b.Ask(context.Background(), ReportPreviewQuery{Session: session("u1"), SelectedUploads: []string{"r1", "missing"}})

	require.NoError(t, err)
	assert.Equal(t, report.Statistics{TotalAnalyses: 1, BenignCount: 1, AvgConfidence: 90, TotalCells: 100}, got)
}

func TestGetSession(t *testing.T) {
	name := "Dr. Rivera"
	tests := []struct {
		name    string
		profile *entities.Profile
		err     error
		display string
	}{
		{"with profile", &entities.Profile{UserID: "u1", FullName: &name}, nil, name},
		{"profile missing", nil, pkgerrors.NewNotFoundError("profile"), "u1@lab.test"},
		{"profile lookup fails", nil, errors.New("boom"), "u1@lab.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, store := setup(t)
			store.On("GetProfile", mock.Anything, "u1").Return(tt.profile, tt.err).Once()

			got, err := b.Ask(context.Background(), GetSessionQuery{Session: session("u1")})

			require.NoError(t, err)
			view := got.(*SessionView)
			assert.True(t, view.Authenticated)
			assert.Equal(t, tt.display, view.DisplayName)
		})
	}
}

func TestGetSession_Anonymous(t *testing.T) {
	b, _ := setup(t)

	got, err := b.Ask(context.Background(), GetSessionQuery{})

	require.NoError(t, err)
	assert.False(t, got.(*SessionView).Authenticated)
}

package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

func TestRecords_FetchAllRequiresSession(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ws.Records.FetchAll(context.Background())

	assert.True(t, pkgerrors.IsUnauthorized(err))
	f.store.AssertNotCalled(t, "ListUploads", mock.Anything, mock.Anything)
}

func TestRecords_FetchAllReplacesList(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.store.On("ListUploads", mock.Anything, "u1").
		Return([]entities.UploadRecord{upload("b", "u1"), upload("a", "u1")}, nil).Once()

	got, err := f.ws.Records.FetchAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got, recordID))
	assert.Equal(t, got, f.ws.Records.Items())
}

func TestRecords_FetchFailureKeepsList(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.ws.Records.Append(upload("local", "u1"))
	f.store.On("ListUploads", mock.Anything, "u1").Return(nil, errors.New("boom")).Once()

	_, err := f.ws.Records.FetchAll(context.Background())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsFetch(err))
	assert.Equal(t, "Failed to fetch your uploads", pkgerrors.NotificationFor(err).Description)
	assert.Equal(t, []string{"local"}, ids(f.ws.Records.Items(), recordID))
}

func TestRecords_AppendPutsNewestFirstWithoutFetching(t *testing.T) {
	f := newFixture(t, signedIn("u1"))

	f.ws.Records.Append(upload("a", "u1"))
	f.ws.Records.Append(upload("b", "u1"))
	f.ws.Records.Append(upload("b", "u1"))

	assert.Equal(t, []string{"b", "b", "a"}, ids(f.ws.Records.Items(), recordID))
	f.store.AssertNotCalled(t, "ListUploads", mock.Anything, mock.Anything)
}

func TestRecords_ItemsIsACopy(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.ws.Records.Append(upload("a", "u1"))

	items := f.ws.Records.Items()
	items[0].Filename = "mutated"

	rec, ok := f.ws.Records.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a.png", rec.Filename)
}

func TestRecords_Analyze(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.ws.Records.Append(upload("old", "u1"))

	f.store.On("InsertUpload", mock.Anything, mock.MatchedBy(func(r *entities.UploadRecord) bool {
		return r.UserID == "u1" &&
			r.Filename == "smear.PNG" &&
			r.Status == valueobjects.StatusCompleted &&
			r.AnalysisResult != nil &&
			r.CellCount >= 50 && r.CellCount <= 549 &&
			r.ConfidenceScore >= 0.7 && r.ConfidenceScore < 1.0
	})).Return(func(_ context.Context, r *entities.UploadRecord) *entities.UploadRecord {
		stored := *r
		stored.ID = "new"
		return &stored
	}, nil).Once()

	rec, err := f.ws.Records.Analyze(context.Background(), entities.FileHandle{Name: "smear.PNG", Size: 10})

	require.NoError(t, err)
	assert.Equal(t, "new", rec.ID)
	assert.Contains(t, rec.FileURL, "upload://u1/")
	assert.Equal(t, []string{"new", "old"}, ids(f.ws.Records.Items(), recordID))
	f.events.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == events.TypeUploadAnalyzed && e.GetAggregateID() == "new"
	}))
}

func TestRecords_AnalyzeRejectsUnsupportedFile(t *testing.T) {
	f := newFixture(t, signedIn("u1"))

	_, err := f.ws.Records.Analyze(context.Background(), entities.FileHandle{Name: "notes.pdf"})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, "Unsupported File", pkgerrors.NotificationFor(err).Title)
	f.store.AssertNotCalled(t, "InsertUpload", mock.Anything, mock.Anything)
}

func TestRecords_AnalyzeInsertFailureAppendsNothing(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.store.On("InsertUpload", mock.Anything, mock.Anything).Return(nil, errors.New("rls")).Once()

	_, err := f.ws.Records.Analyze(context.Background(), entities.FileHandle{Name: "a.jpg"})

	assert.True(t, pkgerrors.IsWrite(err))
	assert.Equal(t, "Failed to analyze image", pkgerrors.NotificationFor(err).Description)
	assert.Empty(t, f.ws.Records.Items())
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRecords_AnalyzeRequiresSession(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ws.Records.Analyze(context.Background(), entities.FileHandle{Name: "a.jpg"})

	assert.True(t, pkgerrors.IsUnauthorized(err))
	assert.Equal(t, "Authentication Required", pkgerrors.NotificationFor(err).Title)
}

func TestRecords_Delete(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.ws.Records.Append(upload("a", "u1"))
	f.ws.Records.Append(upload("b", "u1"))
	f.store.On("DeleteUpload", mock.Anything, "u1", "a").Return(nil).Once()
	f.store.On("DeleteUpload", mock.Anything, "u1", "b").Return(errors.New("offline")).Once()

	require.NoError(t, f.ws.Records.Delete(context.Background(), "a"))
	err := f.ws.Records.Delete(context.Background(), "b")

	assert.True(t, pkgerrors.IsWrite(err))
	assert.Equal(t, []string{"b"}, ids(f.ws.Records.Items(), recordID))
}

func TestRecords_FetchKeepsNewerLocalChanges(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	f.ws.Records.Append(upload("stale-local", "u1"))
	f.store.On("DeleteUpload", mock.Anything, "u1", "gone").Return(nil).Once()

	f.store.On("ListUploads", mock.Anything, "u1").
		Run(func(mock.Arguments) {
			// changes made while the fetch is in flight
			f.ws.Records.Append(upload("fresh", "u1"))
			f.ws.Records.Append(upload("collide", "u1"))
			require.NoError(t, f.ws.Records.Delete(context.Background(), "gone"))
		}).
		Return([]entities.UploadRecord{upload("collide", "u1"), upload("gone", "u1"), upload("remote", "u1")}, nil).Once()

	got, err := f.ws.Records.FetchAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "collide", "remote"}, ids(got, recordID))
}

func TestRecords_Summary(t *testing.T) {
	f := newFixture(t, signedIn("u1"))
	malignant := "malignant"
	m := upload("m", "u1")
	m.AnalysisResult.Classification = &malignant
	m.ConfidenceScore = 0.9
	b := upload("b", "u1")
	b.ConfidenceScore = 0.8
	f.ws.Records.Append(m)
	f.ws.Records.Append(b)

	s := f.ws.Records.Summary()

	assert.Equal(t, Summary{
		TotalUploads: 2, Completed: 2, AvgConfidence: 85, TotalCells: 200,
		MalignantCount: 1, UnknownCount: 1,
	}, s)
	assert.Len(t, f.ws.Records.Completed(), 2)
}

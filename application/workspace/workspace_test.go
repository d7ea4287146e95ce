package workspace

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports/mocks"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// stepClock advances by one millisecond on every reading
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type fixture struct {
	store  *mocks.Store
	events *mocks.EventPublisher
	clock  *stepClock
	ws     *Workspace
}

func newFixture(t *testing.T, s *auth.Session) *fixture {
	t.Helper()
	f := &fixture{
		store:  &mocks.Store{},
		events: &mocks.EventPublisher{},
		clock:  newStepClock(),
	}
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.ws = New(s, f.store, Deps{Events: f.events, Logger: zap.NewNop(), Now: f.clock.Now})
	t.Cleanup(func() { f.store.AssertExpectations(t) })
	return f
}

func signedIn(userID string) *auth.Session {
	return &auth.Session{UserID: userID, Email: userID + "@lab.test", AccessToken: "tok-" + userID}
}

func upload(id, userID string) entities.UploadRecord {
	rec, err := entities.NewCompletedUpload(userID, id+".png", "upload://"+id, entities.AnalysisResult{
		CellCount: 100, CellTypes: []string{"Platelets"}, ConfidenceScore: 0.8,
	})
	if err != nil {
		panic(err)
	}
	rec.ID = id
	return *rec
}

func threadView(id, userID string) entities.ThreadView {
	return entities.NewThreadView(entities.DiscussionThread{
		ID: id, Title: "T " + id, Content: "body", UserID: userID,
	}, &entities.Profile{UserID: userID})
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

package workspace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// MarkerToggle is the session user's favorite or focus membership on one
// thread. The local state flips only after the remote write succeeded.
type MarkerToggle struct {
	bind     *binding
	deps     Deps
	threadID string
	kind     valueobjects.MarkerKind
	onChange func(threadID string, kind valueobjects.MarkerKind, userID string, present bool, at time.Time)

	// op serializes toggles so that each one sees the previous one's result
	op sync.Mutex

	mu        sync.Mutex
	present   bool
	known     bool
	lastWrite time.Time
}

func newMarkerToggle(b *binding, deps Deps, threadID string, kind valueobjects.MarkerKind,
	onChange func(string, valueobjects.MarkerKind, string, bool, time.Time)) *MarkerToggle {
	return &MarkerToggle{bind: b, deps: deps, threadID: threadID, kind: kind, onChange: onChange}
}

// Kind returns the marker kind
func (m *MarkerToggle) Kind() valueobjects.MarkerKind { return m.kind }

// Present returns the local state and whether it has been established
func (m *MarkerToggle) Present() (present, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present, m.known
}

// Status looks the marker up remotely. A missing row means absent. Without a
// signed-in user the marker is absent and nothing is fetched.
func (m *MarkerToggle) Status(ctx context.Context) (bool, error) {
	userID := m.bind.userID()
	if userID == "" {
		return false, nil
	}
	_, store := m.bind.get()

	present, err := store.FindMarker(ctx, m.marker(userID))
	if err != nil {
		return false, pkgerrors.NewFetchError(string(m.kind)+" status", err)
	}

	m.mu.Lock()
	m.present = present
	m.known = true
	m.mu.Unlock()
	return present, nil
}

// Toggle reads the current membership and performs the inverse write. It
// returns the new state. On failure the local state is unchanged.
func (m *MarkerToggle) Toggle(ctx context.Context) (bool, error) {
	userID := m.bind.userID()
	if userID == "" {
		return false, pkgerrors.NewAuthRequiredError(m.authAction())
	}
	_, store := m.bind.get()
	marker := m.marker(userID)

	m.op.Lock()
	defer m.op.Unlock()

	present, err := store.FindMarker(ctx, marker)
	if err != nil {
		return m.current(), m.writeError(err)
	}
	if present {
		err = store.DeleteMarker(ctx, marker)
	} else {
		err = store.InsertMarker(ctx, marker)
	}
	if err != nil {
		return m.current(), m.writeError(err)
	}

	next := !present
	now := m.deps.Now()
	m.mu.Lock()
	m.present = next
	m.known = true
	m.lastWrite = now
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(m.threadID, m.kind, userID, next, now)
	}
	m.deps.Logger.Debug("marker toggled",
		zap.String("thread_id", m.threadID),
		zap.String("kind", string(m.kind)),
		zap.Bool("present", next))
	publish(ctx, m.deps, events.NewMarkerToggled(m.threadID, userID, m.kind, next, now))
	return next, nil
}

func (m *MarkerToggle) seed(present bool) {
	m.mu.Lock()
	m.present = present
	m.known = true
	m.mu.Unlock()
}

// syncFetched adopts a fetched state unless the toggle was written after the
// fetch was issued
func (m *MarkerToggle) syncFetched(present bool, issued time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastWrite.After(issued) {
		return
	}
	m.present = present
	m.known = true
}

func (m *MarkerToggle) current() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

func (m *MarkerToggle) marker(userID string) entities.Marker {
	return entities.Marker{Kind: m.kind, UserID: userID, ThreadID: m.threadID}
}

func (m *MarkerToggle) writeError(err error) error {
	return pkgerrors.NewWriteError("update "+string(m.kind)+" status", err).
		WithNotification("Error", m.kind.FailureDescription())
}

func (m *MarkerToggle) authAction() string {
	if m.kind == valueobjects.MarkerFocus {
		return "focus on collaborations"
	}
	return "favorite discussions"
}

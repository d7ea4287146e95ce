// Package workspace holds the per-user in-memory view of the remote store.
//
// Local state changes only after the remote write behind it succeeded.
// State locks are never held across a remote call; marker toggles are
// serialized per thread and kind.
package workspace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/events"
	"github.com/kwansinnn/cytosight-all-detect/domain/services"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Deps are the collaborators shared by every workspace
type Deps struct {
	Analyzer services.ImageAnalyzer
	Events   ports.EventPublisher
	Logger   *zap.Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Analyzer == nil {
		d.Analyzer = services.NewMockAnalyzer()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// binding is the session and the store bound to its credentials. It changes
// when the access token is refreshed.
type binding struct {
	mu      sync.RWMutex
	session *auth.Session
	store   ports.Store
}

func (b *binding) get() (*auth.Session, ports.Store) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session, b.store
}

func (b *binding) set(s *auth.Session, store ports.Store) {
	b.mu.Lock()
	b.session = s
	b.store = store
	b.mu.Unlock()
}

// userID returns the acting user, or "" when nobody is signed in
func (b *binding) userID() string {
	s, _ := b.get()
	if !s.Authenticated() {
		return ""
	}
	return s.UserID
}

// Workspace is the state of one signed-in user
type Workspace struct {
	bind    *binding
	deps    Deps
	Records *Records
	Threads *Threads
}

// New creates a workspace for session backed by store. A nil session yields
// a read-only workspace whose writes fail with an authentication error.
func New(session *auth.Session, store ports.Store, deps Deps) *Workspace {
	deps = deps.withDefaults()
	b := &binding{session: session, store: store}
	w := &Workspace{bind: b, deps: deps}
	w.Records = newRecords(b, deps)
	w.Threads = newThreads(b, deps)
	return w
}

// Session returns the session the workspace currently acts for
func (w *Workspace) Session() *auth.Session {
	s, _ := w.bind.get()
	return s
}

// Rebind swaps in a refreshed session and its store. Local state is kept.
func (w *Workspace) Rebind(session *auth.Session, store ports.Store) {
	w.bind.set(session, store)
}

// Store returns the store bound to the current session
func (w *Workspace) Store() ports.Store {
	_, st := w.bind.get()
	return st
}

// Profile looks up the session user's profile. A missing or unreadable
// profile is not an error: the display name then falls back to the session
// email.
func (w *Workspace) Profile(ctx context.Context) (*entities.Profile, string) {
	s, store := w.bind.get()
	if s == nil {
		return nil, ""
	}
	profile, err := store.GetProfile(ctx, s.UserID)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			w.deps.Logger.Warn("failed to load profile", zap.String("user_id", s.UserID), zap.Error(err))
		}
		return nil, s.Email
	}
	if profile == nil {
		return nil, s.Email
	}
	if profile.FullName != nil && *profile.FullName != "" {
		return profile, *profile.FullName
	}
	if profile.Email != "" {
		return profile, profile.Email
	}
	return profile, s.Email
}

// publish sends evt after a successful write. Publishing failures never fail
// the user action.
func publish(ctx context.Context, deps Deps, evt events.DomainEvent) {
	if deps.Events == nil {
		return
	}
	if err := deps.Events.Publish(ctx, evt); err != nil {
		deps.Logger.Warn("failed to publish domain event",
			zap.String("event_type", evt.GetEventType()),
			zap.String("aggregate_id", evt.GetAggregateID()),
			zap.Error(err))
	}
}

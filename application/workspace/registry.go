package workspace

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/application/session"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Registry keeps one workspace per signed-in user
type Registry struct {
	factory ports.StoreFactory
	deps    Deps
	logger  *zap.Logger

	mu    sync.RWMutex
	items map[string]*Workspace
}

// NewRegistry creates an empty registry
func NewRegistry(factory ports.StoreFactory, deps Deps) *Registry {
	deps = deps.withDefaults()
	return &Registry{
		factory: factory,
		deps:    deps,
		logger:  deps.Logger,
		items:   make(map[string]*Workspace),
	}
}

// For returns the workspace of the session's user, creating it on first use.
// A refreshed access token rebinds the existing workspace. Anonymous sessions
// get a fresh, uncached workspace.
func (r *Registry) For(s *auth.Session) (*Workspace, error) {
	if !s.Authenticated() {
		store, err := r.factory.ForSession(nil)
		if err != nil {
			return nil, pkgerrors.NewUnavailableError("remote store").WithCause(err)
		}
		return New(nil, store, r.deps), nil
	}

	r.mu.RLock()
	w, ok := r.items[s.UserID]
	r.mu.RUnlock()
	if ok {
		if current := w.Session(); current.AccessToken != s.AccessToken {
			if err := r.rebind(w, s); err != nil {
				return nil, err
			}
		}
		return w, nil
	}

	store, err := r.factory.ForSession(s)
	if err != nil {
		return nil, pkgerrors.NewUnavailableError("remote store").WithCause(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[s.UserID]; ok {
		return existing, nil
	}
	w = New(s, store, r.deps)
	r.items[s.UserID] = w
	r.logger.Debug("workspace created", zap.String("user_id", s.UserID))
	return w, nil
}

// Evict drops the workspace of userID
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	_, ok := r.items[userID]
	delete(r.items, userID)
	r.mu.Unlock()
	if ok {
		r.logger.Debug("workspace evicted", zap.String("user_id", userID))
	}
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Attach subscribes the registry to auth events: sign-out evicts the user's
// workspace and a token refresh rebinds it.
func (r *Registry) Attach(bus *session.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(e session.Event) {
		if !e.Session.Authenticated() {
			return
		}
		switch e.Type {
		case session.SignedOut:
			r.Evict(e.Session.UserID)
		case session.TokenRefreshed:
			r.mu.RLock()
			w, ok := r.items[e.Session.UserID]
			r.mu.RUnlock()
			if ok {
				if err := r.rebind(w, e.Session); err != nil {
					r.logger.Warn("failed to rebind workspace after token refresh",
						zap.String("user_id", e.Session.UserID), zap.Error(err))
				}
			}
		}
	})
}

func (r *Registry) rebind(w *Workspace, s *auth.Session) error {
	store, err := r.factory.ForSession(s)
	if err != nil {
		return pkgerrors.NewUnavailableError("remote store").WithCause(err)
	}
	w.Rebind(s, store)
	return nil
}

package session

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Manager performs sign-in, sign-out and token refresh against the identity
// provider and announces each transition on the bus.
type Manager struct {
	identity ports.IdentityProvider
	bus      *Bus
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a session manager
func NewManager(identity ports.IdentityProvider, bus *Bus, logger *zap.Logger) *Manager {
	return &Manager{identity: identity, bus: bus, logger: logger, now: time.Now}
}

// Bus returns the bus transitions are published on
func (m *Manager) Bus() *Bus {
	return m.bus
}

// SignIn authenticates with email and password
func (m *Manager) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, pkgerrors.NewValidationError("Credentials Required").
			WithNotification("Credentials Required", "Please enter your email and password.")
	}

	s, err := m.identity.SignIn(ctx, email, password)
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewUnauthorizedError("sign-in failed").
			WithCause(err).
			WithNotification("Sign In Failed", "Invalid email or password.")
	}

	m.logger.Info("user signed in", zap.String("user_id", s.UserID))
	m.bus.Publish(Event{Type: SignedIn, Session: s, At: m.now()})
	return s, nil
}

// Resolve turns a bearer token into a session
func (m *Manager) Resolve(ctx context.Context, accessToken string) (*auth.Session, error) {
	s, err := m.identity.Resolve(ctx, accessToken)
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewUnauthorizedError("invalid access token").WithCause(err)
	}
	if s.Expired(m.now()) {
		return nil, pkgerrors.NewUnauthorizedError("access token expired").
			WithNotification("Session Expired", "Your session has expired. Please sign in again.")
	}
	return s, nil
}

// Refresh exchanges a refresh token for a new session
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.NewValidationError("Refresh Token Required")
	}
	s, err := m.identity.Refresh(ctx, refreshToken)
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewUnauthorizedError("token refresh failed").
			WithCause(err).
			WithNotification("Session Expired", "Your session has expired. Please sign in again.")
	}

	m.bus.Publish(Event{Type: TokenRefreshed, Session: s, At: m.now()})
	return s, nil
}

// SignOut ends the session. Subscribers are notified even when the remote
// logout fails, since the local session is discarded either way.
func (m *Manager) SignOut(ctx context.Context, s *auth.Session) error {
	if !s.Authenticated() {
		return pkgerrors.NewAuthRequiredError("sign out")
	}

	err := m.identity.SignOut(ctx, s)
	if err != nil {
		m.logger.Warn("remote sign-out failed", zap.String("user_id", s.UserID), zap.Error(err))
	}

	m.logger.Info("user signed out", zap.String("user_id", s.UserID))
	m.bus.Publish(Event{Type: SignedOut, Session: s, At: m.now()})
	return nil
}

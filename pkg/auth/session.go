package auth

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned when a context carries no signed-in user.
var ErrNoSession = errors.New("no session in context")

// Session is the identity of the signed-in user for one request. It is passed
// explicitly to every component that needs to know who is acting.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Authenticated reports whether the session belongs to a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// Expired reports whether the session's token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession adds the session to the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext extracts the session from the context
func SessionFromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

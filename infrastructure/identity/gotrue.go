// Package identity implements ports.IdentityProvider against Supabase Auth
// and, for local development, against an in-process account list that signs
// tokens the same way.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

var statusPattern = regexp.MustCompile(`^response status code (\d{3})`)

// GoTrueConfig configures the hosted provider
type GoTrueConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string // verifies tokens locally when set
	Timeout   time.Duration
}

// GoTrueProvider talks to Supabase Auth
type GoTrueProvider struct {
	client    gotrue.Client
	validator *auth.JWTValidator
	logger    *zap.Logger
}

var _ ports.IdentityProvider = (*GoTrueProvider)(nil)

// NewGoTrueProvider builds the Auth client from the project URL and key
func NewGoTrueProvider(cfg GoTrueConfig, logger *zap.Logger) (*GoTrueProvider, error) {
	sb, err := supa.NewClient(cfg.URL, cfg.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	client := sb.Auth
	if cfg.Timeout > 0 {
		client = client.WithClient(http.Client{Timeout: cfg.Timeout})
	}

	p := &GoTrueProvider{client: client, logger: logger}
	if cfg.JWTSecret != "" {
		p.validator, err = auth.NewJWTValidator(auth.JWTConfig{SecretKey: cfg.JWTSecret})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SignIn exchanges email and password for a session
func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tok, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, authError(err, "Sign In Failed", "Invalid email or password.")
	}
	return sessionFrom(tok.Session), nil
}

// Resolve verifies the token locally when a secret is configured and asks
// the Auth server otherwise.
func (p *GoTrueProvider) Resolve(ctx context.Context, accessToken string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.validator != nil {
		return resolveLocally(p.validator, accessToken)
	}

	res, err := p.client.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, authError(err, "Session Expired", "Your session has expired. Please sign in again.")
	}
	return &auth.Session{
		UserID:      res.ID.String(),
		Email:       res.Email,
		Role:        res.Role,
		AccessToken: accessToken,
	}, nil
}

// Refresh exchanges a refresh token for a new session
func (p *GoTrueProvider) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tok, err := p.client.RefreshToken(refreshToken)
	if err != nil {
		return nil, authError(err, "Session Expired", "Your session has expired. Please sign in again.")
	}
	return sessionFrom(tok.Session), nil
}

// SignOut revokes the session's refresh tokens
func (p *GoTrueProvider) SignOut(ctx context.Context, s *auth.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.client.WithToken(s.AccessToken).Logout(); err != nil {
		return authError(err, "Sign Out Failed", "Could not sign out. Please try again.")
	}
	return nil
}

func sessionFrom(s types.Session) *auth.Session {
	out := &auth.Session{
		UserID:       s.User.ID.String(),
		Email:        s.User.Email,
		Role:         s.User.Role,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	}
	return out
}

func resolveLocally(v *auth.JWTValidator, accessToken string) (*auth.Session, error) {
	claims, err := v.ValidateToken(accessToken)
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError("invalid access token").
			WithCause(err).
			WithNotification("Session Expired", "Your session has expired. Please sign in again.")
	}
	return auth.SessionFromClaims(accessToken, claims), nil
}

// authError maps the client's status-carrying errors. Client errors become
// Unauthorized; anything else means the service could not be reached.
func authError(err error, title, description string) error {
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		status, _ := strconv.Atoi(m[1])
		if status >= 400 && status < 500 {
			return pkgerrors.NewUnauthorizedError(title).
				WithCode(m[1]).
				WithCause(err).
				WithNotification(title, description)
		}
	}
	return pkgerrors.NewUnavailableError("authentication service").WithCause(err)
}

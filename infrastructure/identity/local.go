package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

const localIssuer = "cytosight-local"

type account struct {
	userID string
	email  string
	hash   []byte
}

// LocalProvider keeps accounts in memory and issues HS256 tokens shaped
// like Supabase's. Used with the memory store.
type LocalProvider struct {
	issuer    *auth.JWTIssuer
	validator *auth.JWTValidator
	now       func() time.Time

	mu       sync.RWMutex
	accounts map[string]account // by lowercased email
	refresh  map[string]string  // refresh token to user ID
}

var _ ports.IdentityProvider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider signing with secret
func NewLocalProvider(secret string, ttl time.Duration) (*LocalProvider, error) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: secret, Issuer: localIssuer})
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LocalProvider{
		issuer:    auth.NewJWTIssuer(secret, localIssuer, []string{"authenticated"}, ttl),
		validator: validator,
		now:       time.Now,
		accounts:  make(map[string]account),
		refresh:   make(map[string]string),
	}, nil
}

// Register adds an account. An empty userID gets a generated one.
func (p *LocalProvider) Register(userID, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", pkgerrors.NewValidationError("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return "", pkgerrors.NewValidationError("email already registered").WithCode("23505")
	}
	p.accounts[email] = account{userID: userID, email: email, hash: hash}
	return userID, nil
}

// SignIn checks the password and issues a session
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	acct, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	p.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return nil, pkgerrors.NewUnauthorizedError("invalid login credentials").
			WithNotification("Sign In Failed", "Invalid email or password.")
	}
	return p.issue(acct)
}

// Resolve verifies the token signature and expiry
func (p *LocalProvider) Resolve(ctx context.Context, accessToken string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resolveLocally(p.validator, accessToken)
}

// Refresh rotates a refresh token. Each token works once.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	userID, ok := p.refresh[refreshToken]
	delete(p.refresh, refreshToken)
	var acct account
	if ok {
		acct, ok = p.accountByIDLocked(userID)
	}
	p.mu.Unlock()
	if !ok {
		return nil, pkgerrors.NewUnauthorizedError("invalid refresh token").
			WithNotification("Session Expired", "Your session has expired. Please sign in again.")
	}
	return p.issue(acct)
}

// SignOut revokes every refresh token of the user
func (p *LocalProvider) SignOut(ctx context.Context, s *auth.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for token, userID := range p.refresh {
		if userID == s.UserID {
			delete(p.refresh, token)
		}
	}
	return nil
}

func (p *LocalProvider) issue(acct account) (*auth.Session, error) {
	token, expiresAt, err := p.issuer.Issue(acct.userID, acct.email, p.now())
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to sign access token").WithCause(err)
	}
	refresh := uuid.NewString()

	p.mu.Lock()
	p.refresh[refresh] = acct.userID
	p.mu.Unlock()

	return &auth.Session{
		UserID:       acct.userID,
		Email:        acct.email,
		Role:         "authenticated",
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (p *LocalProvider) accountByIDLocked(userID string) (account, bool) {
	for _, a := range p.accounts {
		if a.userID == userID {
			return a, true
		}
	}
	return account{}, false
}

package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

const userID = "8f0c3b8e-7c55-4a35-9f1e-3f6f1b0c9a21"

func tokenBody(access, refresh string, expiresAt int64) string {
	b, _ := json.Marshal(map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    expiresAt,
		"user":          map[string]string{"id": userID, "email": "alice@lab.test", "role": "authenticated"},
	})
	return string(b)
}

func fakeAuthServer(t *testing.T) (*httptest.Server, *[]*http.Request) {
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			_, _ = w.Write([]byte(tokenBody("access-1", "refresh-1", 1710000000)))
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			_, _ = w.Write([]byte(tokenBody("access-2", "refresh-2", 1710003600)))
		case r.URL.Path == "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer access-1" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"` + userID + `","email":"alice@lab.test","role":"authenticated"}`))
		case r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newGoTrue(t *testing.T, url, secret string) *GoTrueProvider {
	p, err := NewGoTrueProvider(GoTrueConfig{URL: url, AnonKey: "anon", JWTSecret: secret, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestGoTrue_SignIn(t *testing.T) {
	srv, _ := fakeAuthServer(t)
	p := newGoTrue(t, srv.URL, "")

	s, err := p.SignIn(context.Background(), "alice@lab.test", "secret")

	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "alice@lab.test", s.Email)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.Equal(t, time.Unix(1710000000, 0).UTC(), s.ExpiresAt)
}

func TestGoTrue_SignInRejected(t *testing.T) {
	srv, _ := fakeAuthServer(t)
	p := newGoTrue(t, srv.URL, "")

	_, err := p.SignIn(context.Background(), "alice@lab.test", "wrong")

	require.True(t, pkgerrors.IsUnauthorized(err))
	assert.Equal(t, "400", pkgerrors.GetAppError(err).Code)
	assert.Equal(t, "Sign In Failed", pkgerrors.NotificationFor(err).Title)
}

func TestGoTrue_ResolveAsksServer(t *testing.T) {
	srv, seen := fakeAuthServer(t)
	p := newGoTrue(t, srv.URL, "")

	s, err := p.Resolve(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "anon", (*seen)[0].Header.Get("apiKey"))

	_, err = p.Resolve(context.Background(), "stale")
	assert.True(t, pkgerrors.IsUnauthorized(err))
}

func TestGoTrue_ResolveLocallyWithSecret(t *testing.T) {
	srv, seen := fakeAuthServer(t)
	p := newGoTrue(t, srv.URL, "project-secret")
	token, _, err := auth.NewJWTIssuer("project-secret", "", nil, time.Hour).Issue(userID, "alice@lab.test", time.Now())
	require.NoError(t, err)

	s, err := p.Resolve(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Empty(t, *seen)
}

func TestGoTrue_RefreshAndSignOut(t *testing.T) {
	srv, seen := fakeAuthServer(t)
	p := newGoTrue(t, srv.URL, "")

	s, err := p.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", s.AccessToken)

	require.NoError(t, p.SignOut(context.Background(), s))
	last := (*seen)[len(*seen)-1]
	assert.Equal(t, "/auth/v1/logout", last.URL.Path)
	assert.Equal(t, "Bearer access-2", last.Header.Get("Authorization"))
}

func TestGoTrue_Unreachable(t *testing.T) {
	srv, _ := fakeAuthServer(t)
	url := srv.URL
	srv.Close()
	p := newGoTrue(t, url, "")

	_, err := p.SignIn(context.Background(), "alice@lab.test", "secret")

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}

func TestNewGoTrueProvider_RequiresURL(t *testing.T) {
	_, err := NewGoTrueProvider(GoTrueConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestLocalProvider(t *testing.T) {
	p, err := NewLocalProvider("dev-secret", time.Hour)
	require.NoError(t, err)
	id, err := p.Register("", "Alice@Lab.test", "secret")
	require.NoError(t, err)
	_, err = p.Register("", "alice@lab.test", "other")
	assert.True(t, pkgerrors.IsValidation(err))

	ctx := context.Background()
	_, err = p.SignIn(ctx, "alice@lab.test", "nope")
	assert.True(t, pkgerrors.IsUnauthorized(err))

	s, err := p.SignIn(ctx, " alice@lab.test ", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, s.UserID)

	resolved, err := p.Resolve(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@lab.test", resolved.Email)

	refreshed, err := p.Refresh(ctx, s.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, s.RefreshToken, refreshed.RefreshToken)
	_, err = p.Refresh(ctx, s.RefreshToken)
	assert.True(t, pkgerrors.IsUnauthorized(err), "refresh tokens are single use")

	require.NoError(t, p.SignOut(ctx, refreshed))
	_, err = p.Refresh(ctx, refreshed.RefreshToken)
	assert.True(t, pkgerrors.IsUnauthorized(err))
}

func TestLocalProvider_RejectsForeignTokens(t *testing.T) {
	p, err := NewLocalProvider("dev-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := auth.NewJWTIssuer("other-secret", localIssuer, nil, time.Hour).Issue("x", "x@lab.test", time.Now())
	require.NoError(t, err)

	_, err = p.Resolve(context.Background(), token)

	assert.True(t, pkgerrors.IsUnauthorized(err))
}

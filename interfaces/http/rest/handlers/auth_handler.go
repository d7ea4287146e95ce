package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/session"
	"github.com/kwansinnn/cytosight-all-detect/pkg/api"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// AuthHandler handles sign-in, refresh, sign-out and session lookups
type AuthHandler struct {
	base
	sessions *session.Manager
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	sessions *session.Manager,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		base:     base{commandBus: commandBus, queryBus: queryBus, errs: errs},
		sessions: sessions,
		logger:   logger,
	}
}

// SignInRequest is the body of POST /auth/sign-in
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"notblank"`
}

// TokensResponse carries the credentials of a new session
type TokensResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func tokensFor(s *auth.Session) TokensResponse {
	return TokensResponse{
		UserID:       s.UserID,
		Email:        s.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}

// SignIn handles POST /auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	s, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, tokensFor(s))
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	s, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, tokensFor(s))
}

// SignOut handles POST /auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context(), sessionFrom(r)); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.NoContent(w)
}

// Session handles GET /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	view, err := ask[*queries.SessionView](h.base, r, queries.GetSessionQuery{Session: sessionFrom(r)})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, view)
}

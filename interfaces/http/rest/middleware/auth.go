package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// SessionResolver turns an access token into a session
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken string) (*auth.Session, error)
}

// Authenticate resolves the bearer token, when one is present, into the
// request session. Requests without a token continue anonymously; the
// operations themselves decide whether a signed-in user is required. A token
// that does not resolve is rejected.
func Authenticate(resolver SessionResolver, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Debug("Token rejected",
					zap.String("ip", ClientIP(r)),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				if pkgerrors.GetAppError(err) == nil {
					err = pkgerrors.NewUnauthorizedError("Invalid or expired token").WithCause(err)
				}
				errs.Handle(w, r, err)
				return
			}

			if h := holderFrom(r.Context()); h != nil {
				h.session = session
			}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("user.id", session.UserID))

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// extractToken reads a bearer token from the Authorization header
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// ClientIP extracts the client IP address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

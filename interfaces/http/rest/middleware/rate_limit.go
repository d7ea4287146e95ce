package middleware

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// RateLimit applies limiter per signed-in user, or per client IP for
// anonymous requests. It must run after Authenticate.
func RateLimit(limiter *auth.KeyedLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ClientIP(r)
			if s, err := auth.SessionFromContext(r.Context()); err == nil && s.Authenticated() {
				key = "user:" + s.UserID
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				errs.Handle(w, r, pkgerrors.NewInternalError("rate limiter unavailable").WithCause(err))
				return
			}
			if !allowed {
				limit := limiter.RequestsPerMinute()
				w.Header().Set("Retry-After", "60")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limit, "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

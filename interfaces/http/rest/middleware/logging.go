package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// Logger creates a logging middleware
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
				zap.String("userAgent", r.UserAgent()),
			}
			// Authenticate stores the session on a shared holder so it is
			// visible here after the inner handlers ran.
			if s := sessionHolderFrom(r); s != nil && s.Authenticated() {
				fields = append(fields, zap.String("userID", s.UserID))
			}

			switch {
			case ww.Status() >= 500:
				logger.Error("HTTP Request", fields...)
			case r.URL.Path == "/health" || r.URL.Path == "/ready":
				logger.Debug("HTTP Request", fields...)
			default:
				logger.Info("HTTP Request", fields...)
			}
		})
	}
}

type holderKey struct{}

type sessionHolder struct {
	session *auth.Session
}

// WithSessionHolder installs an empty holder that Authenticate fills. It
// must run before Logger.
func WithSessionHolder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), holderKey{}, &sessionHolder{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func holderFrom(ctx context.Context) *sessionHolder {
	h, _ := ctx.Value(holderKey{}).(*sessionHolder)
	return h
}

func sessionHolderFrom(r *http.Request) *auth.Session {
	if h := holderFrom(r.Context()); h != nil {
		return h.session
	}
	return nil
}

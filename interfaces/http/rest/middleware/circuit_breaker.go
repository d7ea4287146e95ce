package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// CircuitBreakerConfig configures the breaker in front of remote-backed routes
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker once
	// MinRequests have been seen in the current interval.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns the production settings
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

func (c CircuitBreakerConfig) settings(logger *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        c.Name,
		MaxRequests: c.MaxRequests,
		Interval:    c.Interval,
		Timeout:     c.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < c.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

// CircuitBreaker rejects requests with 503 while the routes behind it keep
// answering 5xx. Client errors do not count as failures.
func CircuitBreaker(config CircuitBreakerConfig, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	cb := gobreaker.NewTwoStepCircuitBreaker(config.settings(logger))
	retryAfter := strconv.Itoa(int(config.Timeout.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done, err := cb.Allow()
			if err != nil {
				logger.Warn("Circuit breaker rejected request",
					zap.String("breaker", config.Name),
					zap.String("state", cb.State().String()),
					zap.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", retryAfter)
				errs.Handle(w, r, pkgerrors.NewUnavailableError(config.Name).WithCause(err))
				return
			}

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				// A panic counts as a failure and keeps unwinding
				if p := recover(); p != nil {
					done(false)
					panic(p)
				}
				done(rec.statusCode < http.StatusInternalServerError)
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

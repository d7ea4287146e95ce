package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/session"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/observability"
	"github.com/kwansinnn/cytosight-all-detect/interfaces/http/rest/handlers"
	"github.com/kwansinnn/cytosight-all-detect/interfaces/http/rest/middleware"
	"github.com/kwansinnn/cytosight-all-detect/pkg/api"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Pinger reports whether the remote store can be reached
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the config-driven switches of the router
type Options struct {
	ServiceName        string
	CORSAllowedOrigins []string
	CircuitBreaker     bool
}

// Deps holds everything the router wires into handlers and middleware.
// Collector may be nil when metrics are disabled.
type Deps struct {
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Sessions   *session.Manager
	Readiness  Pinger
	Collector  *observability.Collector
	Limiter    *auth.KeyedLimiter
	Errors     *pkgerrors.ErrorHandler
	Options    Options
	Logger     *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	deps Deps
}

// NewRouter creates a new router instance
func NewRouter(deps Deps) *Router {
	if deps.Options.ServiceName == "" {
		deps.Options.ServiceName = "cytosight"
	}
	return &Router{deps: deps}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	d := rt.deps
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.WithSessionHolder)
	router.Use(middleware.Logger(d.Logger))
	router.Use(d.Errors.Middleware)
	router.Use(observability.TracingMiddleware(d.Options.ServiceName))
	if d.Collector != nil {
		router.Use(observability.MetricsMiddleware(d.Collector))
	}
	router.Use(versionMiddleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Options.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Trace-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if d.Collector != nil {
		router.Method(http.MethodGet, "/metrics", d.Collector.Handler())
	}
	router.Get("/api/docs/openapi.json", api.OpenAPIHandler())

	authHandler := handlers.NewAuthHandler(d.CommandBus, d.QueryBus, d.Sessions, d.Errors, d.Logger)
	uploadHandler := handlers.NewUploadHandler(d.CommandBus, d.QueryBus, d.Errors, d.Logger)
	threadHandler := handlers.NewThreadHandler(d.CommandBus, d.QueryBus, d.Errors, d.Logger)
	reportHandler := handlers.NewReportHandler(d.CommandBus, d.QueryBus, d.Errors, d.Logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Sessions, d.Errors, d.Logger))
		if d.Limiter != nil {
			r.Use(middleware.RateLimit(d.Limiter, d.Errors, d.Logger))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-in", authHandler.SignIn)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/sign-out", authHandler.SignOut)
			r.Get("/session", authHandler.Session)
		})

		// Everything below reads or writes the remote store
		r.Group(func(r chi.Router) {
			if d.Options.CircuitBreaker {
				r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("remote-store"), d.Errors, d.Logger))
			}

			r.Route("/uploads", func(r chi.Router) {
				r.Get("/", uploadHandler.List)
				r.Post("/", uploadHandler.Analyze)
				r.Get("/summary", uploadHandler.Summary)
				r.Delete("/{id}", uploadHandler.Delete)
			})

			r.Route("/threads", func(r chi.Router) {
				r.Get("/", threadHandler.List)
				r.Post("/", threadHandler.Create)
				r.Get("/marked/{kind}", threadHandler.ListMarked)
				r.Delete("/{id}", threadHandler.Delete)
				r.Get("/{id}/comments", threadHandler.ListComments)
				r.Post("/{id}/comments", threadHandler.AddComment)
				r.Get("/{id}/markers/{kind}", threadHandler.MarkerStatus)
				r.Post("/{id}/markers/{kind}/toggle", threadHandler.ToggleMarker)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Post("/", reportHandler.Generate)
				r.Post("/preview", reportHandler.Preview)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once the remote store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.deps.Readiness != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := rt.deps.Readiness.Ping(ctx); err != nil {
			rt.deps.Logger.Warn("Readiness check failed", zap.Error(err))
			rt.deps.Errors.Handle(w, req, pkgerrors.NewUnavailableError("remote store").WithCause(err))
			return
		}
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "ready"})
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}

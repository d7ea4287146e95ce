package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands"
	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/session"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
	"github.com/kwansinnn/cytosight-all-detect/domain/services"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/config"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/identity"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/messaging"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/messaging/eventbridge"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/observability"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/persistence/memory"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/persistence/supabase"
	"github.com/kwansinnn/cytosight-all-detect/internal/fixtures"
	"github.com/kwansinnn/cytosight-all-detect/interfaces/http/rest"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

const (
	serviceName      = "cytosight"
	metricsNamespace = "cytosight"

	// devJWTSecret signs local sessions when no secret is configured
	devJWTSecret = "cytosight-development-secret"
)

// ProvideLogging creates the root logger and its adjustable level
func ProvideLogging(cfg *config.Config) (*Logging, error) {
	logger, level, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &Logging{Logger: logger, Level: level}, nil
}

// ProvideLogger exposes the root logger
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideCollector creates the Prometheus collector. It always exists so the
// decorators can record into it; ENABLE_METRICS only controls whether
// /metrics is served.
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideTracing installs the OTLP exporter when tracing is enabled
func ProvideTracing(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return observability.NoopTracing(), func() {}, nil
	}
	tp, err := observability.InitTracing(observability.TracingConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TracingSampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTracer returns the service tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideMemoryDB creates the in-process database. It is only read when the
// memory store backend is selected.
func ProvideMemoryDB(cfg *config.Config) *memory.DB {
	return memory.NewDB(cfg.ImageBucket)
}

// ProvideIdentity selects the identity provider matching the store backend.
// The memory backend gets a local provider seeded with the demo accounts.
func ProvideIdentity(ctx context.Context, cfg *config.Config, db *memory.DB, logger *zap.Logger) (ports.IdentityProvider, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		secret := cfg.SupabaseJWTSecret
		if secret == "" {
			secret = devJWTSecret
		}
		provider, err := identity.NewLocalProvider(secret, 0)
		if err != nil {
			return nil, err
		}
		if err := fixtures.SeedDemo(ctx, db, provider, services.NewMockAnalyzer()); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		logger.Info("Using local identity provider with demo accounts",
			zap.Int("accounts", len(fixtures.DemoAccounts)))
		return provider, nil
	default:
		return identity.NewGoTrueProvider(identity.GoTrueConfig{
			URL:       cfg.SupabaseURL,
			AnonKey:   cfg.SupabaseAnonKey,
			JWTSecret: cfg.SupabaseJWTSecret,
			Timeout:   cfg.RemoteTimeout,
		}, logger)
	}
}

// ProvideStoreFactory creates the instrumented remote store factory
func ProvideStoreFactory(cfg *config.Config, db *memory.DB, tracer trace.Tracer, collector *observability.Collector) (ports.StoreFactory, error) {
	var factory ports.StoreFactory
	switch cfg.StoreBackend {
	case config.StoreMemory:
		factory = memory.NewFactory(db)
	default:
		f, err := supabase.NewFactory(supabase.FactoryConfig{
			URL:     cfg.SupabaseURL,
			AnonKey: cfg.SupabaseAnonKey,
			Bucket:  cfg.ImageBucket,
			Timeout: cfg.RemoteTimeout,
		})
		if err != nil {
			return nil, err
		}
		factory = f
	}
	return observability.NewInstrumentedFactory(factory, tracer, collector), nil
}

// ProvideEventPublisher selects the domain event transport
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, collector *observability.Collector, logger *zap.Logger) (ports.EventPublisher, func(), error) {
	var publisher ports.EventPublisher
	cleanup := func() {}

	switch cfg.EventBus {
	case config.EventBusRedis:
		rp := messaging.NewRedisPublisher(&redis.Options{Addr: cfg.RedisAddr}, cfg.RedisChannel, logger)
		if err := rp.Ping(ctx); err != nil {
			// Publishing failures never fail user actions, so an unreachable
			// broker is not fatal at startup either.
			logger.Warn("Redis event bus unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		publisher = rp
		cleanup = func() { rp.Close() }
	case config.EventBusEventBridge:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		publisher = eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
	default:
		publisher = messaging.NewLogPublisher(logger)
	}

	return observability.NewInstrumentedPublisher(publisher, collector), cleanup, nil
}

// ProvideSessionManager creates the session manager and its event bus
func ProvideSessionManager(provider ports.IdentityProvider, logger *zap.Logger) *session.Manager {
	return session.NewManager(provider, session.NewBus(), logger)
}

// ProvideWorkspaces creates the per-user workspace registry and subscribes
// it to session events.
func ProvideWorkspaces(
	factory ports.StoreFactory,
	publisher ports.EventPublisher,
	sessions *session.Manager,
	collector *observability.Collector,
	logger *zap.Logger,
) (*workspace.Registry, func()) {
	registry := workspace.NewRegistry(factory, workspace.Deps{
		Analyzer: services.NewMockAnalyzer(),
		Events:   publisher,
		Logger:   logger,
	})
	unsubscribe := registry.Attach(sessions.Bus())
	collector.RegisterGauge(metricsNamespace, "workspaces_active", "Number of open user workspaces",
		func() float64 { return float64(registry.Len()) })
	return registry, unsubscribe
}

// ProvideCommandBus creates the command bus with its middleware
func ProvideCommandBus(
	cfg *config.Config,
	workspaces *workspace.Registry,
	publisher ports.EventPublisher,
	tracer trace.Tracer,
	collector *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	b := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.TracingMiddleware(tracer),
		bus.MetricsMiddleware(collector),
	)
	handler := commands.NewHandler(workspaces, report.NewAssembler(cfg.OrganizationName), publisher, logger)
	if err := commands.RegisterHandlers(b, handler); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideQueryBus creates the query bus with its middleware
func ProvideQueryBus(
	workspaces *workspace.Registry,
	tracer trace.Tracer,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus(
		querybus.TracingMiddleware(tracer),
		querybus.MetricsMiddleware(collector),
	)
	if err := queries.RegisterHandlers(b, queries.NewHandler(workspaces, logger)); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideRateLimiter returns nil when rate limiting is disabled
func ProvideRateLimiter(cfg *config.Config) *auth.KeyedLimiter {
	if cfg.RateLimitPerMinute == 0 {
		return nil
	}
	return auth.NewKeyedLimiter(cfg.RateLimitPerMinute)
}

// ProvideErrorHandler creates the HTTP error handler. Stack traces are only
// included outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	sessions *session.Manager,
	factory ports.StoreFactory,
	collector *observability.Collector,
	limiter *auth.KeyedLimiter,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	deps := rest.Deps{
		CommandBus: commandBus,
		QueryBus:   queryBus,
		Sessions:   sessions,
		Readiness:  factory,
		Limiter:    limiter,
		Errors:     errs,
		Options: rest.Options{
			ServiceName:        serviceName,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			CircuitBreaker:     cfg.CircuitBreakerEnabled,
		},
		Logger: logger,
	}
	if cfg.EnableMetrics {
		deps.Collector = collector
	}
	return rest.NewRouter(deps)
}

package di

import (
	"go.uber.org/zap"

	"github.com/kwansinnn/cytosight-all-detect/application/commands/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/ports"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/application/session"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/config"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/observability"
	"github.com/kwansinnn/cytosight-all-detect/interfaces/http/rest"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
	pkgerrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logging     *Logging
	Logger      *zap.Logger
	Tracing     *observability.TracerProvider
	Collector   *observability.Collector
	Stores      ports.StoreFactory
	Identity    ports.IdentityProvider
	Events      ports.EventPublisher
	Sessions    *session.Manager
	Workspaces  *workspace.Registry
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	RateLimiter *auth.KeyedLimiter
	Errors      *pkgerrors.ErrorHandler
	Router      *rest.Router
}

// Logging is the root logger together with the level the config watcher
// adjusts.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// Watch applies hot-reloadable settings from the config file to the
// container. It returns nil when no config file is in use.
func (c *Container) Watch() (*config.Watcher, error) {
	if c.Config.ConfigFile == "" {
		return nil, nil
	}
	w, err := config.NewWatcher(c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	w.OnChange(config.ApplyLogLevel(c.Logging.Level))
	if c.RateLimiter != nil {
		limiter := c.RateLimiter
		w.OnChange(func(rt config.Runtime) {
			limiter.SetRequestsPerMinute(rt.RateLimitPerMinute)
		})
	}
	return w, nil
}

//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/kwansinnn/cytosight-all-detect/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideCollector,
	ProvideTracing,
	ProvideTracer,
	ProvideMemoryDB,
	ProvideIdentity,
	ProvideStoreFactory,
	ProvideEventPublisher,
	ProvideSessionManager,
	ProvideWorkspaces,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}

//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/Mr-Georgie/weather-api/application/services"
	"github.com/Mr-Georgie/weather-api/infrastructure/config"

	"github.com/google/wire"
)

// InfrastructureSet provides logging, storage, cache, queue and transport clients.
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideAppLogger,
	ProvideErrorHandler,
	ProvideCollector,
	ProvideTracing,
	ProvideCloudWatch,
	ProvideRedisClient,
	ProvideStore,
	ProvideAccessor,
	ProvideHTTPClient,
	ProvideExternalClient,
	ProvideDatabase,
	ProvideRepositories,
	ProvideUserRepository,
	ProvideLocationRepository,
	ProvideEventPublisher,
	ProvideQueue,
)

// ApplicationSet provides the services, the sync job and the HTTP layer.
var ApplicationSet = wire.NewSet(
	ProvideJWTService,
	ProvidePasswordHasher,
	ProvideUserService,
	ProvideWeatherService,
	services.NewAuthService,
	services.NewLocationService,
	ProvideRateLimiters,
	ProvideScheduler,
	ProvideProcessor,
	ProvideHandlers,
	ProvideRouter,
	ProvideConfigWatcher,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}

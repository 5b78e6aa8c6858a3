// Package di wires the application with google/wire. wire_gen.go is generated from wire.go.
package di

import (
	"github.com/Mr-Georgie/weather-api/application/services"
	weathersync "github.com/Mr-Georgie/weather-api/application/sync"
	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	"github.com/Mr-Georgie/weather-api/infrastructure/config"
	"github.com/Mr-Georgie/weather-api/interfaces/http/rest"
	"github.com/Mr-Georgie/weather-api/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Tracer    *observability.TracerProvider
	Store     cache.Store
	Weather   *services.WeatherService
	Router    *rest.Router
	Scheduler *weathersync.Scheduler
	Processor *weathersync.Processor
	Limiters  RateLimiters
	Watcher   *config.Watcher
}

// SyncRunner returns a runner for one complete sync cycle.
func (c *Container) SyncRunner() *weathersync.Runner {
	return weathersync.NewRunner(c.Scheduler, c.Processor)
}

package di

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/application/services"
	weathersync "github.com/Mr-Georgie/weather-api/application/sync"
	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	"github.com/Mr-Georgie/weather-api/infrastructure/config"
	"github.com/Mr-Georgie/weather-api/infrastructure/external"
	"github.com/Mr-Georgie/weather-api/infrastructure/logging"
	"github.com/Mr-Georgie/weather-api/infrastructure/messaging"
	"github.com/Mr-Georgie/weather-api/infrastructure/messaging/eventbridge"
	"github.com/Mr-Georgie/weather-api/infrastructure/persistence/dynamodb"
	"github.com/Mr-Georgie/weather-api/infrastructure/persistence/memory"
	"github.com/Mr-Georgie/weather-api/infrastructure/persistence/postgres"
	"github.com/Mr-Georgie/weather-api/infrastructure/queue"
	"github.com/Mr-Georgie/weather-api/interfaces/http/rest"
	"github.com/Mr-Georgie/weather-api/interfaces/http/rest/handlers"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"
	"github.com/Mr-Georgie/weather-api/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "weather-api"

// developmentSecret signs tokens when JWT_SECRET is unset outside production.
const developmentSecret = "development-only-secret"

// Repositories groups the storage adapters picked by STORAGE_DRIVER.
type Repositories struct {
	Users     ports.UserRepository
	Locations ports.LocationRepository
	Health    ports.HealthChecker
}

// RateLimiters holds the swappable limiter of each scope.
type RateLimiters struct {
	Public        *auth.ReloadableLimiter
	Authenticated *auth.ReloadableLimiter
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("service", serviceName))
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideAppLogger adapts the zap logger for the application layer
func ProvideAppLogger(logger *zap.Logger) ports.Logger {
	return logging.NewAdapter(logger)
}

// ProvideErrorHandler renders errors with stack traces in development only
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *appErrors.ErrorHandler {
	return appErrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.MetricsNamespace)
}

// ProvideTracing installs the OpenTelemetry provider when tracing is enabled with the otel backend.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing || cfg.TracingBackend != config.TracingOTel {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideCloudWatch returns a sync run reporter. Outside Lambda it has no client and does nothing.
func ProvideCloudWatch(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.CloudWatchMetrics, error) {
	namespace := fmt.Sprintf("WeatherAPI/%s", cfg.Environment)
	if !cfg.IsLambda || !cfg.EnableMetrics {
		return observability.NewCloudWatchMetrics(namespace, nil, logger), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return observability.NewCloudWatchMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger), nil
}

// ProvideRedisClient opens the shared Redis client when a driver needs it, and returns nil otherwise.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func()) {
	if cfg.CacheDriver != config.DriverRedis && cfg.QueueDriver != config.DriverRedis {
		return nil, func() {}
	}

	client := cache.NewRedisClient(cache.RedisOptions{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Username:     cfg.Redis.User,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return client, func() { _ = client.Close() }
}

// ProvideStore selects the cache store from CACHE_DRIVER
func ProvideStore(cfg *config.Config, client *redis.Client) (cache.Store, func()) {
	if cfg.CacheDriver == config.DriverRedis && client != nil {
		// The client is closed by its own cleanup.
		return cache.NewRedisStore(client), func() {}
	}
	store := cache.NewMemoryStore(time.Minute)
	return store, func() { _ = store.Close() }
}

// ProvideAccessor creates the cache-aside accessor
func ProvideAccessor(store cache.Store, logger ports.Logger, metrics *observability.Collector) *cache.Accessor {
	return cache.NewAccessor(store, logger, cache.WithMetrics(metrics))
}

// ProvideHTTPClient returns the transport for upstream calls, instrumented for X-Ray when that backend is on.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	client := &http.Client{}
	if cfg.EnableTracing && cfg.TracingBackend == config.TracingXRay {
		return observability.InstrumentHTTPClient(client)
	}
	return client
}

// ProvideExternalClient creates the resilient fetch client
func ProvideExternalClient(httpClient *http.Client, cfg *config.Config, logger ports.Logger, metrics *observability.Collector) *external.Client {
	return external.NewClient(httpClient, cfg.Tunables.Retry, logger, external.WithMetrics(metrics))
}

// ProvideDatabase opens PostgreSQL when it is the storage driver, and returns nil otherwise.
func ProvideDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, func(), error) {
	if cfg.StorageDriver != config.DriverPostgres {
		return nil, func() {}, nil
	}

	db, err := postgres.Open(ctx, PostgresConfig(cfg), logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// PostgresConfig maps the database settings onto the driver config.
func PostgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// ProvideRepositories selects the storage adapters from STORAGE_DRIVER
func ProvideRepositories(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (Repositories, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return Repositories{
			Users:     postgres.NewUserRepository(db, logger),
			Locations: postgres.NewLocationRepository(db, logger),
			Health:    postgres.NewHealthChecker(db),
		}, nil

	case config.DriverDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return Repositories{}, err
		}
		return Repositories{
			Users:     dynamodb.NewUserRepository(client, cfg.DynamoDBTable, logger),
			Locations: dynamodb.NewLocationRepository(client, cfg.DynamoDBTable, logger),
			Health:    dynamodb.NewHealthChecker(client, cfg.DynamoDBTable),
		}, nil

	default:
		logger.Warn("Using in-memory storage, data is lost on restart")
		users := memory.NewUserRepository()
		return Repositories{
			Users:     users,
			Locations: memory.NewLocationRepository(),
			Health:    users,
		}, nil
	}
}

// ProvideUserRepository exposes the selected user repository
func ProvideUserRepository(r Repositories) ports.UserRepository {
	return r.Users
}

// ProvideLocationRepository exposes the selected location repository
func ProvideLocationRepository(r Repositories) ports.LocationRepository {
	return r.Locations
}

// ProvideEventPublisher sends domain events to EventBridge when EVENT_BUS_NAME is set and logs them otherwise.
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger, appLogger ports.Logger) (ports.EventPublisher, error) {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(appLogger), nil
	}

	client, err := eventbridge.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger), nil
}

// ProvideJWTService creates the token service
func ProvideJWTService(cfg *config.Config, logger *zap.Logger) (*auth.JWTService, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET is not set, using the development secret")
		secret = developmentSecret
	}
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.Auth.JWTIssuer,
		TTL:       cfg.Auth.TokenTTL,
	})
}

// ProvidePasswordHasher creates the bcrypt hasher
func ProvidePasswordHasher(cfg *config.Config) *auth.PasswordHasher {
	return auth.NewPasswordHasher(cfg.Auth.BcryptCost)
}

// ProvideUserService creates the user service with the configured profile TTL
func ProvideUserService(users ports.UserRepository, accessor *cache.Accessor, publisher ports.EventPublisher, logger ports.Logger, cfg *config.Config) *services.UserService {
	svc := services.NewUserService(users, accessor, publisher, logger)
	svc.SetCacheTTL(cfg.Tunables.Cache.User)
	return svc
}

// ProvideWeatherService creates the weather service
func ProvideWeatherService(client *external.Client, accessor *cache.Accessor, cfg *config.Config, logger ports.Logger) *services.WeatherService {
	return services.NewWeatherService(client, accessor, services.WeatherConfig{
		APIKey:       cfg.Weather.APIKey,
		CurrentURL:   cfg.Weather.CurrentURL,
		ForecastURL:  cfg.Weather.ForecastURL,
		ForecastDays: cfg.Weather.ForecastDays,
		CurrentTTL:   cfg.Tunables.Cache.CurrentWeather,
		ForecastTTL:  cfg.Tunables.Cache.Forecast,
	}, logger)
}

// ProvideRateLimiters builds one limiter per scope
func ProvideRateLimiters(cfg *config.Config, client *redis.Client) RateLimiters {
	return RateLimiters{
		Public:        auth.NewReloadableLimiter(newLimiter(client, cfg.Tunables.RateLimits.Public)),
		Authenticated: auth.NewReloadableLimiter(newLimiter(client, cfg.Tunables.RateLimits.Authenticated)),
	}
}

// newLimiter counts in Redis when a client is available and in memory otherwise.
func newLimiter(client *redis.Client, rl config.RateLimit) auth.RateLimiter {
	if client != nil {
		return auth.NewRedisRateLimiter(client, rl.Limit, rl.Window)
	}
	return auth.NewMemoryRateLimiter(rl.Limit, rl.Window)
}

// ProvideQueue selects the sync queue from QUEUE_DRIVER
func ProvideQueue(cfg *config.Config, client *redis.Client) (queue.Queue, func()) {
	var q queue.Queue
	if cfg.QueueDriver == config.DriverRedis && client != nil {
		q = queue.NewRedisQueue(client, cfg.Sync.QueueName)
	} else {
		q = queue.NewMemoryQueue(1024)
	}
	return q, func() { _ = q.Close() }
}

// ProvideScheduler creates the cron scheduler over the favorite cities
func ProvideScheduler(cfg *config.Config, locations *services.LocationService, q queue.Queue, logger ports.Logger) (*weathersync.Scheduler, error) {
	return weathersync.NewScheduler(cfg.Sync.Schedule, locations, q, logger)
}

// ProvideProcessor creates the sync job processor
func ProvideProcessor(
	cfg *config.Config,
	q queue.Queue,
	weather *services.WeatherService,
	logger ports.Logger,
	metrics *observability.Collector,
	reporter *observability.CloudWatchMetrics,
) *weathersync.Processor {
	return weathersync.NewProcessor(q, weather, weathersync.ProcessorConfig{
		Concurrency: cfg.Sync.Concurrency,
		Attempts:    cfg.Sync.Attempts,
		Backoff:     cfg.Sync.Backoff,
	}, logger, weathersync.WithMetrics(metrics), weathersync.WithRunReporter(reporter))
}

// ProvideHandlers creates the HTTP handlers
func ProvideHandlers(
	cfg *config.Config,
	authService *services.AuthService,
	users *services.UserService,
	locations *services.LocationService,
	weather *services.WeatherService,
	store cache.Store,
	repos Repositories,
	logger *zap.Logger,
	errorHandler *appErrors.ErrorHandler,
) rest.Handlers {
	return rest.Handlers{
		Auth:     handlers.NewAuthHandler(authService, cfg.Auth.TokenTTL, cfg.IsProduction(), logger, errorHandler),
		User:     handlers.NewUserHandler(users, logger, errorHandler),
		Location: handlers.NewLocationHandler(locations, logger, errorHandler),
		Weather:  handlers.NewWeatherHandler(weather, logger, errorHandler),
		Health: handlers.NewHealthHandler(map[string]ports.HealthChecker{
			"cache":    store,
			"database": repos.Health,
		}),
	}
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	h rest.Handlers,
	limiters RateLimiters,
	tokens *auth.JWTService,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *appErrors.ErrorHandler,
) *rest.Router {
	return rest.NewRouter(rest.RouterConfig{
		AllowedOrigins: cfg.ClientOrigins,
		RequestTimeout: cfg.RequestTimeout,
		EnableMetrics:  cfg.EnableMetrics,
	}, h, rest.Limiters{
		Public:        limiters.Public,
		Authenticated: limiters.Authenticated,
	}, tokens, metrics, logger, errorHandler)
}

// Reloadable are the components whose settings follow the config file.
type Reloadable struct {
	Client   *external.Client
	Weather  *services.WeatherService
	Users    *services.UserService
	Limiters RateLimiters
	Redis    *redis.Client
}

// ApplyTunables pushes new tunables into the running components. Limiters are only
// rebuilt when their budget changed, since a new limiter starts with fresh counters.
func ApplyTunables(r Reloadable, previous, current config.Tunables) {
	r.Client.SetPolicy(current.Retry)
	r.Weather.SetCacheTTLs(current.Cache.CurrentWeather, current.Cache.Forecast)
	r.Users.SetCacheTTL(current.Cache.User)

	if previous.RateLimits.Public != current.RateLimits.Public {
		r.Limiters.Public.Swap(newLimiter(r.Redis, current.RateLimits.Public))
	}
	if previous.RateLimits.Authenticated != current.RateLimits.Authenticated {
		r.Limiters.Authenticated.Swap(newLimiter(r.Redis, current.RateLimits.Authenticated))
	}
}

// ProvideConfigWatcher starts hot reload of CONFIG_FILE for long-running processes. It returns
// nil when there is no file or the process runs in Lambda.
func ProvideConfigWatcher(
	cfg *config.Config,
	logger *zap.Logger,
	client *external.Client,
	weather *services.WeatherService,
	users *services.UserService,
	limiters RateLimiters,
	redisClient *redis.Client,
) (*config.Watcher, func(), error) {
	if cfg.ConfigFile == "" || cfg.IsLambda {
		return nil, func() {}, nil
	}

	w, err := config.NewWatcher(cfg.ConfigFile, cfg.Tunables, logger)
	if err != nil {
		return nil, nil, err
	}

	target := Reloadable{Client: client, Weather: weather, Users: users, Limiters: limiters, Redis: redisClient}
	w.OnChange(func(previous, current config.Tunables) {
		ApplyTunables(target, previous, current)
	})
	w.Start()
	return w, w.Stop, nil
}

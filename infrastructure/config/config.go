package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	"github.com/Mr-Georgie/weather-api/infrastructure/external"
)

// Driver names accepted by CACHE_DRIVER, QUEUE_DRIVER and STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// Tracing backends.
const (
	TracingOTel = "otel"
	TracingXRay = "xray"
)

// AuthConfig holds token and password settings
type AuthConfig struct {
	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int
}

// WeatherAPIConfig points at the upstream weather provider
type WeatherAPIConfig struct {
	APIKey       string
	CurrentURL   string
	ForecastURL  string
	ForecastDays int
}

// RedisConfig holds the Redis connection shared by cache, queue and rate limiter
type RedisConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DB       int
}

// DatabaseConfig holds the PostgreSQL connection
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SyncConfig controls the background forecast refresh
type SyncConfig struct {
	Enabled     bool
	Schedule    string
	Concurrency int
	Attempts    int
	Backoff     time.Duration
	QueueName   string
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string
	Environment    string
	ClientOrigins  []string
	RequestTimeout time.Duration
	IsLambda       bool

	// Logging
	LogLevel string

	Auth     AuthConfig
	Weather  WeatherAPIConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Sync     SyncConfig

	// Drivers
	CacheDriver   string
	QueueDriver   string
	StorageDriver string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Feature flags
	EnableMetrics    bool
	EnableTracing    bool
	TracingBackend   string
	OTLPEndpoint     string
	MetricsNamespace string

	// ConfigFile is the optional YAML overlay for the tunables.
	ConfigFile string

	// Tunables can be changed at runtime through ConfigFile.
	Tunables Tunables
}

// Tunables are the settings a running process picks up again when the config file changes.
type Tunables struct {
	Retry      external.RetryPolicy `yaml:"retry"`
	Cache      CacheTTLs            `yaml:"cache"`
	RateLimits RateLimits           `yaml:"rate_limits"`
}

// CacheTTLs holds cache expiry per entry kind
type CacheTTLs struct {
	CurrentWeather time.Duration `yaml:"current_weather"`
	Forecast       time.Duration `yaml:"forecast"`
	User           time.Duration `yaml:"user"`
}

// RateLimits holds one fixed window per scope
type RateLimits struct {
	Public        RateLimit `yaml:"public"`
	Authenticated RateLimit `yaml:"authenticated"`
}

// RateLimit is a request budget per window
type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Validate checks the budget can be enforced
func (r RateLimit) Validate(scope string) error {
	if r.Limit <= 0 {
		return fmt.Errorf("%s rate limit must be positive, got %d", scope, r.Limit)
	}
	if r.Window <= 0 {
		return fmt.Errorf("%s rate limit window must be positive, got %s", scope, r.Window)
	}
	return nil
}

// Validate checks every tunable
func (t Tunables) Validate() error {
	if err := t.Retry.Validate(); err != nil {
		return fmt.Errorf("retry policy: %w", err)
	}
	if t.Cache.CurrentWeather <= 0 || t.Cache.Forecast <= 0 || t.Cache.User <= 0 {
		return errors.New("cache ttls must be positive")
	}
	if err := t.RateLimits.Public.Validate("public"); err != nil {
		return err
	}
	return t.RateLimits.Authenticated.Validate("authenticated")
}

// LoadConfig loads configuration from environment variables and applies CONFIG_FILE when set
func LoadConfig() (*Config, error) {
	cfg := fromEnv()

	if cfg.ConfigFile != "" {
		tunables, err := LoadTunables(cfg.ConfigFile, cfg.Tunables)
		if err != nil {
			return nil, err
		}
		cfg.Tunables = tunables
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		ClientOrigins:  getEnvList("CLIENT_ORIGIN", []string{"http://localhost:3000"}),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		IsLambda:       getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "",
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			JWTIssuer:  getEnv("JWT_ISSUER", "weather-api"),
			TokenTTL:   time.Duration(getEnvInt("ACCESS_TOKEN_VALIDITY_DURATION_IN_SEC", 3600)) * time.Second,
			BcryptCost: getEnvInt("BCRYPT_SALT_ROUNDS", 10),
		},

		Weather: WeatherAPIConfig{
			APIKey:       getEnv("WEATHER_API_KEY", ""),
			CurrentURL:   getEnv("WEATHER_API_CURRENT_CITY_URL", "https://api.weatherapi.com/v1/current.json"),
			ForecastURL:  getEnv("WEATHER_API_CITY_FORECAST_URL", "https://api.weatherapi.com/v1/forecast.json"),
			ForecastDays: getEnvInt("WEATHER_FORECAST_DAYS", 5),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			User:     getEnv("REDIS_USER", ""),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnvInt("DATABASE_PORT", 5432),
			User:     getEnv("DATABASE_USER", "postgres"),
			Password: getEnv("DATABASE_PASS", ""),
			Name:     getEnv("DATABASE_NAME", "weather"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},

		Sync: SyncConfig{
			Enabled:     getEnvBool("SYNC_ENABLED", false),
			Schedule:    getEnv("SYNC_SCHEDULE", "*/30 * * * *"),
			Concurrency: getEnvInt("SYNC_CONCURRENCY", 5),
			Attempts:    getEnvInt("SYNC_ATTEMPTS", 3),
			Backoff:     getEnvDuration("SYNC_BACKOFF", time.Second),
			QueueName:   getEnv("SYNC_QUEUE", "weather-sync"),
		},

		CacheDriver:   getEnv("CACHE_DRIVER", DriverRedis),
		QueueDriver:   getEnv("QUEUE_DRIVER", DriverMemory),
		StorageDriver: getEnv("STORAGE_DRIVER", DriverPostgres),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTable: getEnv("DYNAMODB_TABLE", "weather-api"),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		TracingBackend:   getEnv("TRACING_BACKEND", TracingOTel),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "weather_api"),

		ConfigFile: getEnv("CONFIG_FILE", ""),

		Tunables: Tunables{
			Retry: external.RetryPolicy{
				Retries:   getEnvInt("HTTP_RETRIES", external.DefaultRetries),
				Timeout:   getEnvMillis("HTTP_TIMEOUT", external.DefaultTimeout),
				BaseDelay: getEnvMillis("HTTP_BACKOFF_BASE", external.DefaultBaseDelay),
				MaxDelay:  getEnvMillis("HTTP_BACKOFF_MAX", external.DefaultMaxDelay),
				Jitter:    external.DefaultJitter,
			},
			Cache: CacheTTLs{
				CurrentWeather: cache.DefaultCurrentWeatherTTL,
				Forecast:       cache.DefaultForecastTTL,
				User:           cache.DefaultUserTTL,
			},
			RateLimits: RateLimits{
				Public: RateLimit{
					Limit:  getEnvInt("PUBLIC_RATE_LIMIT", 10),
					Window: getEnvMillis("PUBLIC_RATE_LIMIT_TTL", time.Minute),
				},
				Authenticated: RateLimit{
					Limit:  getEnvInt("AUTH_RATE_LIMIT", 100),
					Window: getEnvMillis("AUTH_RATE_LIMIT_TTL", time.Minute),
				},
			},
		},
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.Weather.CurrentURL == "" || c.Weather.ForecastURL == "" {
		return errors.New("WEATHER_API_CURRENT_CITY_URL and WEATHER_API_CITY_FORECAST_URL are required")
	}
	if c.IsProduction() && c.Weather.APIKey == "" {
		return errors.New("WEATHER_API_KEY is required in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_VALIDITY_DURATION_IN_SEC must be positive, got %s", c.Auth.TokenTTL)
	}

	switch c.CacheDriver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver)
	}
	switch c.QueueDriver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q", c.QueueDriver)
	}
	switch c.StorageDriver {
	case DriverPostgres, DriverMemory:
	case DriverDynamoDB:
		if c.DynamoDBTable == "" {
			return errors.New("DYNAMODB_TABLE is required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.TracingBackend {
	case TracingOTel, TracingXRay:
	default:
		return fmt.Errorf("unknown TRACING_BACKEND %q", c.TracingBackend)
	}

	if c.Sync.Concurrency <= 0 || c.Sync.Attempts <= 0 || c.Sync.Backoff <= 0 {
		return errors.New("SYNC_CONCURRENCY, SYNC_ATTEMPTS and SYNC_BACKOFF must be positive")
	}

	return c.Tunables.Validate()
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("1s", "500ms").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMillis reads a plain number of milliseconds, falling back to a duration string.
func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return getEnvDuration(key, defaultValue)
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

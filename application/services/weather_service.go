package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/domain/weather"
	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	"github.com/Mr-Georgie/weather-api/infrastructure/external"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"
	"github.com/Mr-Georgie/weather-api/pkg/utils"
)

// DefaultForecastDays is the forecast length requested from the provider.
const DefaultForecastDays = 5

const cityRules = "required,min=2,max=50,city"

// WeatherConfig holds the provider settings.
type WeatherConfig struct {
	APIKey       string
	CurrentURL   string
	ForecastURL  string
	ForecastDays int
	CurrentTTL   time.Duration
	ForecastTTL  time.Duration
}

// WeatherService serves current weather and forecasts through the cache.
type WeatherService struct {
	client *external.Client
	cache  *cache.Accessor
	logger ports.Logger

	apiKey       string
	currentURL   string
	forecastURL  string
	forecastDays int
	currentTTL   atomic.Int64
	forecastTTL  atomic.Int64
}

// NewWeatherService creates a new weather service
func NewWeatherService(client *external.Client, accessor *cache.Accessor, cfg WeatherConfig, logger ports.Logger) *WeatherService {
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	if cfg.CurrentTTL <= 0 {
		cfg.CurrentTTL = cache.DefaultCurrentWeatherTTL
	}
	if cfg.ForecastTTL <= 0 {
		cfg.ForecastTTL = cache.DefaultForecastTTL
	}

	s := &WeatherService{
		client:       client,
		cache:        accessor,
		logger:       logger,
		apiKey:       cfg.APIKey,
		currentURL:   cfg.CurrentURL,
		forecastURL:  cfg.ForecastURL,
		forecastDays: cfg.ForecastDays,
	}
	s.SetCacheTTLs(cfg.CurrentTTL, cfg.ForecastTTL)
	return s
}

// SetCacheTTLs changes the TTLs used for entries written from now on. Non-positive values are ignored.
func (s *WeatherService) SetCacheTTLs(current, forecast time.Duration) {
	if current > 0 {
		s.currentTTL.Store(int64(current))
	}
	if forecast > 0 {
		s.forecastTTL.Store(int64(forecast))
	}
}

// GetCurrent returns the current weather for city, cached for the current-weather TTL.
func (s *WeatherService) GetCurrent(ctx context.Context, city string) (*weather.CurrentReport, error) {
	city, err := normalizeCityInput(city)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(s.currentTTL.Load())
	report, err := cache.GetOrCompute(ctx, s.cache, cache.CurrentWeatherKey(city), ttl,
		func(ctx context.Context) (weather.CurrentReport, error) {
			return s.fetchCurrent(ctx, city)
		})
	if err != nil {
		return nil, MapUpstreamError(err)
	}
	return &report, nil
}

// GetForecast returns the forecast for city, cached for the forecast TTL.
func (s *WeatherService) GetForecast(ctx context.Context, city string) (*weather.ForecastReport, error) {
	city, err := normalizeCityInput(city)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(s.forecastTTL.Load())
	report, err := cache.GetOrCompute(ctx, s.cache, cache.ForecastKey(city), ttl,
		func(ctx context.Context) (weather.ForecastReport, error) {
			return s.fetchForecast(ctx, city, s.forecastDays)
		})
	if err != nil {
		return nil, MapUpstreamError(err)
	}
	return &report, nil
}

// FetchForecast calls the provider directly, bypassing the cache. Errors are returned unmapped.
func (s *WeatherService) FetchForecast(ctx context.Context, city string, days int) (*weather.ForecastReport, error) {
	report, err := s.fetchForecast(ctx, entities.NormalizeCity(city), days)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// RefreshForecast fetches a fresh forecast and overwrites the cached entry.
func (s *WeatherService) RefreshForecast(ctx context.Context, city string) error {
	city = entities.NormalizeCity(city)
	report, err := s.fetchForecast(ctx, city, s.forecastDays)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cache.ForecastKey(city), report, time.Duration(s.forecastTTL.Load()))
}

func (s *WeatherService) fetchCurrent(ctx context.Context, city string) (weather.CurrentReport, error) {
	query := url.Values{"q": {city}, "key": {s.apiKey}}
	report, err := external.FetchJSON[weather.CurrentReport](ctx, s.client, s.currentURL+"?"+query.Encode(), s.authHeader())
	if err != nil {
		return report, err
	}

	summary := report.Summarize()
	s.logger.Info("Fetched current weather",
		"city", summary.CityName,
		"country", summary.Country,
		"current_temp", summary.CurrentTemp,
		"last_updated", summary.DataTimestamp,
	)
	return report, nil
}

func (s *WeatherService) fetchForecast(ctx context.Context, city string, days int) (weather.ForecastReport, error) {
	if days <= 0 {
		days = s.forecastDays
	}
	query := url.Values{"q": {city}, "key": {s.apiKey}, "days": {strconv.Itoa(days)}}
	report, err := external.FetchJSON[weather.ForecastReport](ctx, s.client, s.forecastURL+"?"+query.Encode(), s.authHeader())
	if err != nil {
		return report, err
	}

	summary := report.Summarize()
	s.logger.Info("Fetched forecast",
		"city", summary.CityName,
		"country", summary.Country,
		"current_temp", summary.CurrentTemp,
		"forecast_days", summary.ForecastDaysCount,
		"alerts", summary.AlertsCount,
		"last_updated", summary.DataTimestamp,
	)
	return report, nil
}

func (s *WeatherService) authHeader() external.RequestOption {
	return external.WithHeader("Authorization", "Bearer "+s.apiKey)
}

func normalizeCityInput(city string) (string, error) {
	city = entities.NormalizeCity(city)
	if err := utils.ValidateVar("city", city, cityRules); err != nil {
		return "", appErrors.NewValidationError(err.Error())
	}
	return city, nil
}

// MapUpstreamError converts fetch and cache failures into application errors.
func MapUpstreamError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := appErrors.GetAppError(err); appErr != nil {
		return appErr
	}

	var (
		nonRetryable *external.NonRetryableError
		timeout      *external.TimeoutError
		exhausted    *external.RetriesExhaustedError
		cacheErr     *cache.CacheBackendError
	)

	switch {
	case errors.As(err, &nonRetryable):
		switch nonRetryable.StatusCode {
		case http.StatusBadRequest:
			msg := nonRetryable.Message
			if msg == "" {
				msg = http.StatusText(http.StatusBadRequest)
			}
			return appErrors.NewExternalError(http.StatusBadRequest, appErrors.CodeUpstreamBadRequest, msg, err)
		case http.StatusUnauthorized:
			return appErrors.NewExternalError(http.StatusUnauthorized, appErrors.CodeUpstreamUnauthorized, appErrors.MsgUnauthorized, err)
		default:
			return appErrors.NewExternalError(http.StatusForbidden, appErrors.CodeAPIKeyLimitIssues, appErrors.MsgAPIKeyLimitIssues, err)
		}

	case errors.As(err, &timeout):
		return appErrors.NewTimeoutError("weather lookup").WithCause(err)

	case errors.As(err, &exhausted):
		msg := exhausted.Message
		if msg == "" {
			msg = appErrors.MsgServerError
		}
		return appErrors.NewExternalError(http.StatusBadGateway, appErrors.CodeUpstreamError, msg, err)

	case errors.As(err, &cacheErr):
		return appErrors.NewUnavailableError("cache").WithCode(appErrors.CodeCacheUnavailable).WithCause(err)
	}

	return appErrors.Wrap(err, "weather lookup failed")
}

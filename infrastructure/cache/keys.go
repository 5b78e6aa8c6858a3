package cache

import (
	"strings"
	"time"
)

// Key prefixes, one per logical namespace.
const (
	PrefixCurrentWeather = "weather:current:"
	PrefixForecast       = "weather:forecast:"
	PrefixUser           = "user:"
	PrefixRateLimit      = "ratelimit:"
)

// Default TTLs per namespace.
const (
	DefaultCurrentWeatherTTL = 5 * time.Minute
	DefaultForecastTTL       = time.Hour
	DefaultUserTTL           = 30 * time.Second
)

// CurrentWeatherKey returns the key for a city's current weather.
func CurrentWeatherKey(city string) string {
	return PrefixCurrentWeather + normalize(city)
}

// ForecastKey returns the key for a city's forecast.
func ForecastKey(city string) string {
	return PrefixForecast + normalize(city)
}

// UserKey returns the key for a user looked up by id.
func UserKey(id string) string {
	return PrefixUser + id
}

// RateLimitKey returns the counter key for a scope and subject.
func RateLimitKey(scope, subject string) string {
	return PrefixRateLimit + scope + ":" + subject
}

// Namespace returns the key up to and including its last colon.
func Namespace(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[:i+1]
	}
	return key
}

func normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

package handlers

import (
	"net/http"
	"net/url"

	"github.com/Mr-Georgie/weather-api/application/services"
	"github.com/Mr-Georgie/weather-api/pkg/common"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WeatherHandler serves current weather and forecasts
type WeatherHandler struct {
	weather      *services.WeatherService
	logger       *zap.Logger
	errorHandler *appErrors.ErrorHandler
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(weather *services.WeatherService, logger *zap.Logger, errorHandler *appErrors.ErrorHandler) *WeatherHandler {
	return &WeatherHandler{weather: weather, logger: logger, errorHandler: errorHandler}
}

// Current handles GET /weather/{city}
// @Summary Current weather for a city
// @Tags weather
// @Produce json
// @Param city path string true "City name"
// @Success 200 {object} common.APIResponse{data=weather.CurrentReport}
// @Failure 404 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /weather/{city} [get]
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	report, err := h.weather.GetCurrent(r.Context(), cityParam(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondOK(w, report)
}

// Forecast handles GET /weather/{city}/forecast
// @Summary Forecast for a city
// @Tags weather
// @Produce json
// @Param city path string true "City name"
// @Success 200 {object} common.APIResponse{data=weather.ForecastReport}
// @Failure 404 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /weather/{city}/forecast [get]
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	report, err := h.weather.GetForecast(r.Context(), cityParam(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondOK(w, report)
}

func cityParam(r *http.Request) string {
	city := chi.URLParam(r, "city")
	if decoded, err := url.PathUnescape(city); err == nil {
		return decoded
	}
	return city
}

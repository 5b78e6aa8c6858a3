package handlers

import (
	"net/http"

	"github.com/Mr-Georgie/weather-api/application/services"
	"github.com/Mr-Georgie/weather-api/pkg/common"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LocationHandler handles favorite-city requests
type LocationHandler struct {
	locations    *services.LocationService
	logger       *zap.Logger
	errorHandler *appErrors.ErrorHandler
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *services.LocationService, logger *zap.Logger, errorHandler *appErrors.ErrorHandler) *LocationHandler {
	return &LocationHandler{locations: locations, logger: logger, errorHandler: errorHandler}
}

// Create handles POST /locations
// @Summary Save a favorite city
// @Tags locations
// @Accept json
// @Produce json
// @Param request body services.CreateLocationRequest true "City to save"
// @Success 201 {object} common.APIResponse{data=entities.Location}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /locations [post]
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req services.CreateLocationRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	location, err := h.locations.Create(r.Context(), caller.UserID, req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, common.MsgCreated, location)
}

// List handles GET /locations
// @Summary List favorite cities
// @Tags locations
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} common.APIResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /locations [get]
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	page, err := h.locations.List(r.Context(), caller.UserID, common.ExtractPaginationParams(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondOK(w, page)
}

// Remove handles DELETE /locations/{id}
// @Summary Remove a favorite city
// @Tags locations
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} common.APIResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /locations/{id} [delete]
func (h *LocationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.locations.Remove(r.Context(), caller.UserID, chi.URLParam(r, "id")); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, "Location removed", nil)
}

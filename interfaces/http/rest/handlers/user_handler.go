package handlers

import (
	"net/http"

	"github.com/Mr-Georgie/weather-api/application/services"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
	"github.com/Mr-Georgie/weather-api/pkg/common"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"go.uber.org/zap"
)

// UserHandler serves the caller's own account
type UserHandler struct {
	users        *services.UserService
	logger       *zap.Logger
	errorHandler *appErrors.ErrorHandler
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, logger *zap.Logger, errorHandler *appErrors.ErrorHandler) *UserHandler {
	return &UserHandler{users: users, logger: logger, errorHandler: errorHandler}
}

// GetProfile handles GET /user
// @Summary Get the caller's profile
// @Tags user
// @Produce json
// @Success 200 {object} common.APIResponse{data=entities.User}
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /user [get]
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.users.FindByID(r.Context(), caller.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondOK(w, user)
}

// DeleteAccount handles DELETE /user
// @Summary Delete the caller's account
// @Tags user
// @Produce json
// @Success 200 {object} common.APIResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /user [delete]
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.users.Remove(r.Context(), caller.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: auth.TokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	h.logger.Info("Account deleted", zap.String("user_id", caller.UserID))
	common.RespondJSON(w, http.StatusOK, "Account deleted", nil)
}

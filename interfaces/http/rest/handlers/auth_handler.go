package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Mr-Georgie/weather-api/application/services"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
	"github.com/Mr-Georgie/weather-api/pkg/common"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// AuthHandler handles signup and login
type AuthHandler struct {
	auth         *services.AuthService
	tokenTTL     time.Duration
	secureCookie bool
	logger       *zap.Logger
	errorHandler *appErrors.ErrorHandler
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, tokenTTL time.Duration, secureCookie bool, logger *zap.Logger, errorHandler *appErrors.ErrorHandler) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Signup handles POST /auth/signup
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.SignupRequest true "Signup request"
// @Success 201 {object} common.APIResponse{data=services.AuthResult}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	common.RespondJSON(w, http.StatusCreated, common.MsgSignupSuccess, result)
}

// Login handles POST /auth/login
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login request"
// @Success 200 {object} common.APIResponse{data=services.AuthResult}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	common.RespondJSON(w, http.StatusCreated, common.MsgLoginSuccess, result)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		if errors.Is(err, common.ErrEmptyBody) {
			return appErrors.NewValidationError("Request body is required")
		}
		return appErrors.NewValidationError("Invalid request body: " + err.Error())
	}
	return nil
}

func currentUser(r *http.Request) (*auth.UserContext, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return nil, appErrors.NewUnauthorizedError("")
	}
	return user, nil
}

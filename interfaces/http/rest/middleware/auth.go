package middleware

import (
	"errors"
	"net/http"

	"github.com/Mr-Georgie/weather-api/pkg/auth"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate validates the access token from the Authorization header or the token
// cookie and stores the caller in the request context.
func Authenticate(tokens *auth.JWTService, errorHandler *appErrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractToken(r)
			if token == "" {
				errorHandler.Handle(w, r, appErrors.NewUnauthorizedError(""))
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				logger.Debug("Rejected access token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				message := appErrors.MsgUnauthorized
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "Token has expired"
				}
				errorHandler.Handle(w, r, appErrors.NewUnauthorizedError(message))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID(),
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package services

import (
	"context"
	"testing"

	"github.com/Mr-Georgie/weather-api/domain/events"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Sunny#Day9"

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create the account and return a token for it", func(t *testing.T) {
		f := newFixture()

		result, err := f.authSvc.Signup(ctx, SignupRequest{
			Email:           "  Ada@Example.com ",
			Password:        strongPassword,
			ConfirmPassword: strongPassword,
		})
		require.NoError(t, err)

		claims, err := f.tokens.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", claims.Email)

		user, err := f.users.GetByEmail(ctx, "ada@example.com", false)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID())
		assert.NotEqual(t, strongPassword, user.PasswordHash)
		assert.Equal(t, []string{events.TypeUserRegistered}, f.publisher.types())
	})

	t.Run("Should reject mismatched confirmation", func(t *testing.T) {
		f := newFixture()

		_, err := f.authSvc.Signup(ctx, SignupRequest{
			Email:           "ada@example.com",
			Password:        strongPassword,
			ConfirmPassword: strongPassword + "x",
		})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		assert.Contains(t, err.Error(), "Passwords do not match")
	})

	t.Run("Should reject weak passwords", func(t *testing.T) {
		f := newFixture()

		for _, pw := range []string{"short1!", "alllowercase1!", "NoDigits!!", "NoSymbol99"} {
			_, err := f.authSvc.Signup(ctx, SignupRequest{Email: "ada@example.com", Password: pw, ConfirmPassword: pw})
			assert.True(t, appErrors.IsValidation(err), pw)
		}
	})

	t.Run("Should treat a differently written email as the same account", func(t *testing.T) {
		f := newFixture()

		_, err := f.authSvc.Signup(ctx, SignupRequest{Email: "ada@example.com", Password: strongPassword, ConfirmPassword: strongPassword})
		require.NoError(t, err)

		_, err = f.authSvc.Signup(ctx, SignupRequest{Email: " ADA@example.com  ", Password: strongPassword, ConfirmPassword: strongPassword})
		assert.True(t, appErrors.HasCode(err, appErrors.CodeEmailAlreadyExists))
	})

	t.Run("Should refuse an email that belonged to a deleted account", func(t *testing.T) {
		f := newFixture()
		req := SignupRequest{Email: "ada@example.com", Password: strongPassword, ConfirmPassword: strongPassword}

		_, err := f.authSvc.Signup(ctx, req)
		require.NoError(t, err)
		user, err := f.users.GetByEmail(ctx, "ada@example.com", false)
		require.NoError(t, err)
		require.NoError(t, f.userSvc.Remove(ctx, user.ID))

		_, err = f.authSvc.Signup(ctx, req)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.CodeEmailAlreadyExists))
		assert.Equal(t, appErrors.MsgEmailAlreadyExists, appErrors.GetAppError(err).Message)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.authSvc.Signup(ctx, SignupRequest{Email: "ada@example.com", Password: strongPassword, ConfirmPassword: strongPassword})
	require.NoError(t, err)

	t.Run("Should issue a token for valid credentials", func(t *testing.T) {
		result, err := f.authSvc.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: strongPassword})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("Should accept an email with surrounding whitespace", func(t *testing.T) {
		result, err := f.authSvc.Login(ctx, LoginRequest{Email: "  Ada@Example.com ", Password: strongPassword})
		require.NoError(t, err)

		claims, err := f.tokens.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", claims.Email)
	})

	t.Run("Should report an unknown account", func(t *testing.T) {
		_, err := f.authSvc.Login(ctx, LoginRequest{Email: "grace@example.com", Password: strongPassword})
		assert.True(t, appErrors.HasCode(err, appErrors.CodeAccountNotFound))
	})

	t.Run("Should report a wrong password", func(t *testing.T) {
		_, err := f.authSvc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "Wrong#Pass1"})
		require.Error(t, err)
		appErr := appErrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, appErrors.CodePasswordMismatch, appErr.Code)
		assert.Equal(t, 400, appErr.HTTPStatus)
	})

	t.Run("Should require a valid email", func(t *testing.T) {
		_, err := f.authSvc.Login(ctx, LoginRequest{Email: "not-an-email", Password: strongPassword})
		assert.True(t, appErrors.IsValidation(err))
	})
}

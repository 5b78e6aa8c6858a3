package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{SecretKey: "test-secret", Issuer: "weather-api", TTL: time.Hour})
	require.NoError(t, err)
	return svc
}

func TestJWTService(t *testing.T) {
	t.Run("Should round trip the subject and email", func(t *testing.T) {
		svc := newTestJWTService(t)

		token, err := svc.GenerateToken("7a0c3c1e-9a53-4bb0-8a7e-1f0d3f5e2c11", "ada@example.com")
		require.NoError(t, err)

		claims, err := svc.ValidateToken("Bearer " + token)
		require.NoError(t, err)
		assert.Equal(t, "7a0c3c1e-9a53-4bb0-8a7e-1f0d3f5e2c11", claims.UserID())
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "weather-api", claims.Issuer)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		svc := newTestJWTService(t)
		issued := time.Now().Add(-2 * time.Hour)
		svc.now = func() time.Time { return issued }
		token, err := svc.GenerateToken("user-1", "ada@example.com")
		require.NoError(t, err)

		svc.now = time.Now
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{SecretKey: "other", Issuer: "weather-api", TTL: time.Hour})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", "ada@example.com")
		require.NoError(t, err)

		_, err = newTestJWTService(t).ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Should reject another issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{SecretKey: "test-secret", Issuer: "someone-else", TTL: time.Hour})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", "ada@example.com")
		require.NoError(t, err)

		_, err = newTestJWTService(t).ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("Should reject the none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "weather-api"},
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = newTestJWTService(t).ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should report a missing token", func(t *testing.T) {
		_, err := newTestJWTService(t).ValidateToken("  ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("Should require a secret", func(t *testing.T) {
		_, err := NewJWTService(JWTConfig{TTL: time.Hour})
		assert.Error(t, err)
	})
}

func TestExtractToken(t *testing.T) {
	t.Run("Should prefer the bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer header-token")
		r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "cookie-token"})
		assert.Equal(t, "header-token", ExtractToken(r))
	})

	t.Run("Should fall back to the token cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "cookie-token"})
		assert.Equal(t, "cookie-token", ExtractToken(r))
	})

	t.Run("Should ignore other schemes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic abc")
		assert.Empty(t, ExtractToken(r))
	})
}

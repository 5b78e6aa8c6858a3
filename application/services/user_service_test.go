package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should cache the sanitized user on lookup", func(t *testing.T) {
		f := newFixture()
		created, err := f.userSvc.CreateUser(ctx, "ada@example.com", "hash")
		require.NoError(t, err)

		user, err := f.userSvc.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, user.PasswordHash)
		assert.Equal(t, "ada@example.com", user.Email)

		cached, found, err := cache.Get[*entities.User](ctx, f.accessor, cache.UserKey(created.ID))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, created.ID, cached.ID)
		assert.Empty(t, cached.PasswordHash)
	})

	t.Run("Should report an unknown id as account not found", func(t *testing.T) {
		f := newFixture()

		_, err := f.userSvc.FindByID(ctx, "7c0f7a3e-8a8e-4a57-9b1b-4f0d2b8f9d11")
		assert.True(t, appErrors.HasCode(err, appErrors.CodeAccountNotFound))
		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("Should reject a duplicate email", func(t *testing.T) {
		f := newFixture()
		_, err := f.userSvc.CreateUser(ctx, "ada@example.com", "hash")
		require.NoError(t, err)

		_, err = f.userSvc.CreateUser(ctx, "ADA@example.com", "hash")
		assert.True(t, appErrors.HasCode(err, appErrors.CodeEmailAlreadyExists))
	})

	t.Run("Should find deleted users only when asked to", func(t *testing.T) {
		f := newFixture()
		created, err := f.userSvc.CreateUser(ctx, "ada@example.com", "hash")
		require.NoError(t, err)
		require.NoError(t, f.userSvc.Remove(ctx, created.ID))

		live, err := f.userSvc.FindByEmail(ctx, "ada@example.com", false)
		require.NoError(t, err)
		assert.Nil(t, live)

		deleted, err := f.userSvc.FindByEmail(ctx, "ada@example.com", true)
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.True(t, deleted.IsDeleted())
	})

	t.Run("Should evict the cached user on removal", func(t *testing.T) {
		f := newFixture()
		created, err := f.userSvc.CreateUser(ctx, "ada@example.com", "hash")
		require.NoError(t, err)
		_, err = f.userSvc.FindByID(ctx, created.ID)
		require.NoError(t, err)

		require.NoError(t, f.userSvc.Remove(ctx, created.ID))

		_, found, err := cache.Get[*entities.User](ctx, f.accessor, cache.UserKey(created.ID))
		require.NoError(t, err)
		assert.False(t, found)

		_, err = f.userSvc.FindByID(ctx, created.ID)
		assert.True(t, appErrors.HasCode(err, appErrors.CodeAccountNotFound))
		assert.Equal(t, []string{events.TypeUserDeleted}, f.publisher.types())
	})

	t.Run("Should not fail removal when publishing fails", func(t *testing.T) {
		f := newFixture()
		f.publisher.err = errors.New("bus unavailable")
		created, err := f.userSvc.CreateUser(ctx, "ada@example.com", "hash")
		require.NoError(t, err)

		assert.NoError(t, f.userSvc.Remove(ctx, created.ID))
	})
}

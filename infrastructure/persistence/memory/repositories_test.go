package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Should block reuse of a deleted email", func(t *testing.T) {
		repo := NewUserRepository()
		user := entities.NewUser("Ada@Example.com", "hash")
		require.NoError(t, repo.Create(ctx, user))
		require.NoError(t, repo.SoftDelete(ctx, user.ID))

		_, err := repo.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, ports.ErrNotFound)

		_, err = repo.GetByEmail(ctx, "ada@example.com", false)
		assert.ErrorIs(t, err, ports.ErrNotFound)

		found, err := repo.GetByEmail(ctx, "ada@example.com", true)
		require.NoError(t, err)
		assert.True(t, found.IsDeleted())

		err = repo.Create(ctx, entities.NewUser("ada@example.com", "hash"))
		assert.ErrorIs(t, err, ports.ErrDuplicate)
	})

	t.Run("Should hand out copies", func(t *testing.T) {
		repo := NewUserRepository()
		user := entities.NewUser("ada@example.com", "hash")
		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.Email = "changed@example.com"

		again, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", again.Email)
	})
}

func TestLocationRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Should scope duplicates to the owner", func(t *testing.T) {
		repo := NewLocationRepository()
		require.NoError(t, repo.Create(ctx, entities.NewLocation("u1", "Lagos")))
		require.NoError(t, repo.Create(ctx, entities.NewLocation("u2", "lagos")))

		err := repo.Create(ctx, entities.NewLocation("u1", "LAGOS"))
		assert.ErrorIs(t, err, ports.ErrDuplicate)

		exists, err := repo.ExistsForUser(ctx, "u1", "Lagos ")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Should allow a city again after removal", func(t *testing.T) {
		repo := NewLocationRepository()
		loc := entities.NewLocation("u1", "abuja")
		require.NoError(t, repo.Create(ctx, loc))
		require.NoError(t, repo.SoftDelete(ctx, loc.ID))

		assert.NoError(t, repo.Create(ctx, entities.NewLocation("u1", "abuja")))
		assert.ErrorIs(t, repo.SoftDelete(ctx, loc.ID), ports.ErrNotFound)
	})

	t.Run("Should paginate newest first", func(t *testing.T) {
		repo := NewLocationRepository()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, city := range []string{"accra", "lagos", "nairobi", "cairo", "dakar", "lome", "kano"} {
			loc := entities.NewLocation("u1", city)
			loc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, repo.Create(ctx, loc))
		}

		first, total, err := repo.ListByUser(ctx, "u1", common.PaginationParams{Page: 1, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 7, total)
		require.Len(t, first, 5)
		assert.Equal(t, "kano", first[0].City)

		second, _, err := repo.ListByUser(ctx, "u1", common.PaginationParams{Page: 2, Limit: 5})
		require.NoError(t, err)
		require.Len(t, second, 2)
		assert.Equal(t, "accra", second[1].City)

		empty, _, err := repo.ListByUser(ctx, "u1", common.PaginationParams{Page: 3, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Should list distinct live cities", func(t *testing.T) {
		repo := NewLocationRepository()
		require.NoError(t, repo.Create(ctx, entities.NewLocation("u1", "lagos")))
		require.NoError(t, repo.Create(ctx, entities.NewLocation("u2", "lagos")))
		gone := entities.NewLocation("u2", "accra")
		require.NoError(t, repo.Create(ctx, gone))
		require.NoError(t, repo.SoftDelete(ctx, gone.ID))

		cities, err := repo.DistinctCities(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"lagos"}, cities)
	})
}

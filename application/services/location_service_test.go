package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/pkg/common"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0b6f3c4e-2f7a-4b59-9d1f-1a2b3c4d5e6f"
	bob   = "9e8d7c6b-5a49-4c3b-8a2f-0f1e2d3c4b5a"
)

func TestLocationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Should store the city lowercased", func(t *testing.T) {
		f := newFixture()

		loc, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "  Port Harcourt "})
		require.NoError(t, err)
		assert.Equal(t, "port harcourt", loc.City)
		assert.Equal(t, alice, loc.UserID)
		assert.Equal(t, []string{events.TypeLocationFavorited}, f.publisher.types())
	})

	t.Run("Should reject a city the user already saved", func(t *testing.T) {
		f := newFixture()
		_, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "Lagos"})
		require.NoError(t, err)

		_, err = f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "LAGOS"})
		assert.True(t, appErrors.HasCode(err, appErrors.CodeCityAlreadyExists))
	})

	t.Run("Should let different users save the same city", func(t *testing.T) {
		f := newFixture()
		_, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "Lagos"})
		require.NoError(t, err)

		_, err = f.locSvc.Create(ctx, bob, CreateLocationRequest{City: "Lagos"})
		assert.NoError(t, err)
	})

	t.Run("Should validate the city", func(t *testing.T) {
		f := newFixture()

		for _, city := range []string{"", "a", "Lagos1", "New-York!"} {
			_, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: city})
			assert.True(t, appErrors.IsValidation(err), city)
		}
	})
}

func TestLocationService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 0; i < 7; i++ {
		_, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: fmt.Sprintf("city %c", 'a'+i)})
		require.NoError(t, err)
	}
	_, err := f.locSvc.Create(ctx, bob, CreateLocationRequest{City: "Abuja"})
	require.NoError(t, err)

	t.Run("Should default to the first page of five", func(t *testing.T) {
		page, err := f.locSvc.List(ctx, alice, common.PaginationParams{})
		require.NoError(t, err)

		assert.Len(t, page.Results, 5)
		assert.Equal(t, 1, page.CurrentPage)
		assert.Equal(t, 5, page.PageSize)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 7, page.TotalItems)
	})

	t.Run("Should return the remainder on the last page", func(t *testing.T) {
		page, err := f.locSvc.List(ctx, alice, common.PaginationParams{Page: 2, Limit: 5})
		require.NoError(t, err)
		assert.Len(t, page.Results, 2)
	})

	t.Run("Should return an empty slice past the end", func(t *testing.T) {
		page, err := f.locSvc.List(ctx, bob, common.PaginationParams{Page: 3, Limit: 5})
		require.NoError(t, err)
		assert.NotNil(t, page.Results)
		assert.Empty(t, page.Results)
		assert.Equal(t, 1, page.TotalItems)
	})
}

func TestLocationService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("Should soft delete the caller's favorite", func(t *testing.T) {
		f := newFixture()
		loc, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "Lagos"})
		require.NoError(t, err)

		require.NoError(t, f.locSvc.Remove(ctx, alice, loc.ID))

		page, err := f.locSvc.List(ctx, alice, common.DefaultPaginationParams())
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.Equal(t, []string{events.TypeLocationFavorited, events.TypeLocationRemoved}, f.publisher.types())

		_, err = f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "Lagos"})
		assert.NoError(t, err)
	})

	t.Run("Should reject malformed and unknown ids", func(t *testing.T) {
		f := newFixture()

		for _, id := range []string{"not-a-uuid", "3fa85f64-5717-4562-b3fc-2c963f66afa6"} {
			err := f.locSvc.Remove(ctx, alice, id)
			assert.True(t, appErrors.HasCode(err, appErrors.CodeInvalidID), id)
		}
	})

	t.Run("Should forbid removing another user's favorite", func(t *testing.T) {
		f := newFixture()
		loc, err := f.locSvc.Create(ctx, alice, CreateLocationRequest{City: "Lagos"})
		require.NoError(t, err)

		err = f.locSvc.Remove(ctx, bob, loc.ID)
		appErr := appErrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusForbidden, appErr.HTTPStatus)
		assert.Equal(t, appErrors.MsgPermissionDenied, appErr.Message)

		exists, err := f.locations.ExistsForUser(ctx, alice, "lagos")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestLocationService_DistinctCities(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, c := range []struct{ user, city string }{{alice, "Lagos"}, {bob, "lagos"}, {bob, "Accra"}} {
		_, err := f.locSvc.Create(ctx, c.user, CreateLocationRequest{City: c.city})
		require.NoError(t, err)
	}

	t.Run("Should list each live city once", func(t *testing.T) {
		cities, err := f.locSvc.DistinctCities(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"accra", "lagos"}, cities)
	})
}

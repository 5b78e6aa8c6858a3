package services

import (
	"context"
	"errors"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/pkg/common"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"
	"github.com/Mr-Georgie/weather-api/pkg/utils"

	"github.com/google/uuid"
)

// CreateLocationRequest is the payload for adding a favorite city
type CreateLocationRequest struct {
	City string `json:"city" validate:"required,min=2,max=50,city"`
}

// LocationService manages favorite cities
type LocationService struct {
	locations ports.LocationRepository
	publisher ports.EventPublisher
	logger    ports.Logger
}

// NewLocationService creates a new location service
func NewLocationService(locations ports.LocationRepository, publisher ports.EventPublisher, logger ports.Logger) *LocationService {
	return &LocationService{
		locations: locations,
		publisher: publisher,
		logger:    logger,
	}
}

// Create adds city to the user's favorites.
func (s *LocationService) Create(ctx context.Context, userID string, req CreateLocationRequest) (*entities.Location, error) {
	req.City = entities.NormalizeCity(req.City)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	exists, err := s.locations.ExistsForUser(ctx, userID, req.City)
	if err != nil {
		return nil, appErrors.NewDatabaseError("check location", err)
	}
	if exists {
		return nil, cityExists()
	}

	location := entities.NewLocation(userID, req.City)
	if err := s.locations.Create(ctx, location); err != nil {
		// lost a race with a concurrent insert
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, cityExists()
		}
		return nil, appErrors.NewDatabaseError("create location", err)
	}

	publish(ctx, s.publisher, s.logger,
		events.NewLocationFavorited(location.ID, userID, location.City, location.CreatedAt))
	s.logger.Info("Location added", "user_id", userID, "city", location.City)
	return location, nil
}

// List returns one page of the user's favorites, newest first.
func (s *LocationService) List(ctx context.Context, userID string, params common.PaginationParams) (*common.PaginatedResult[*entities.Location], error) {
	params = params.Normalize()

	items, total, err := s.locations.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, appErrors.NewDatabaseError("list locations", err)
	}
	return common.NewPaginatedResult(items, params, total), nil
}

// Remove soft deletes a favorite owned by userID.
func (s *LocationService) Remove(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.NewBadRequestError(appErrors.CodeInvalidID, appErrors.MsgInvalidID)
	}

	location, err := s.locations.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return appErrors.NewBadRequestError(appErrors.CodeInvalidID, appErrors.MsgInvalidID)
	}
	if err != nil {
		return appErrors.NewDatabaseError("find location", err)
	}

	if !location.IsOwnedBy(userID) {
		s.logger.Warn("Rejected removal of another user's location", "user_id", userID, "location_id", id)
		return appErrors.NewForbiddenError(appErrors.MsgPermissionDenied).WithCode(appErrors.CodePermissionDenied)
	}

	if err := s.locations.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return appErrors.NewBadRequestError(appErrors.CodeInvalidID, appErrors.MsgInvalidID)
		}
		return appErrors.NewDatabaseError("delete location", err)
	}

	publish(ctx, s.publisher, s.logger,
		events.NewLocationRemoved(id, userID, location.City, time.Now().UTC()))
	s.logger.Info("Location removed", "user_id", userID, "city", location.City)
	return nil
}

// DistinctCities lists every city that is somebody's live favorite.
func (s *LocationService) DistinctCities(ctx context.Context) ([]string, error) {
	cities, err := s.locations.DistinctCities(ctx)
	if err != nil {
		return nil, appErrors.NewDatabaseError("list cities", err)
	}
	return cities, nil
}

func cityExists() error {
	return appErrors.NewBadRequestError(appErrors.CodeCityAlreadyExists, appErrors.MsgCityAlreadyExists)
}

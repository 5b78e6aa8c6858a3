package ports

import (
	"context"
	"errors"

	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/pkg/common"
)

// Repository sentinel errors. Implementations wrap these so callers can use errors.Is.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create persists a new user. A live or deleted user with the same email yields ErrDuplicate.
	Create(ctx context.Context, user *entities.User) error

	// GetByID returns a live user.
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail returns the user with email; includeDeleted also matches soft-deleted rows.
	GetByEmail(ctx context.Context, email string, includeDeleted bool) (*entities.User, error)

	// SoftDelete marks the user as deleted.
	SoftDelete(ctx context.Context, id string) error
}

// LocationRepository defines the interface for favorite-location persistence
type LocationRepository interface {
	// Create persists a new favorite. A live favorite with the same user and city yields ErrDuplicate.
	Create(ctx context.Context, location *entities.Location) error

	// GetByID returns a live favorite.
	GetByID(ctx context.Context, id string) (*entities.Location, error)

	// ExistsForUser reports whether the user has a live favorite for city.
	ExistsForUser(ctx context.Context, userID, city string) (bool, error)

	// ListByUser returns one page of the user's live favorites and the total count.
	ListByUser(ctx context.Context, userID string, page common.PaginationParams) ([]*entities.Location, int, error)

	// SoftDelete marks the favorite as deleted.
	SoftDelete(ctx context.Context, id string) error

	// DistinctCities returns each city that has at least one live favorite.
	DistinctCities(ctx context.Context) ([]string, error)
}

// HealthChecker is implemented by stores that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventPublisher publishes domain events to a bus
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

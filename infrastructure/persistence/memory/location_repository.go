package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/pkg/common"
)

// LocationRepository keeps favorites in a map keyed by id.
type LocationRepository struct {
	mu        sync.RWMutex
	locations map[string]*entities.Location
}

// NewLocationRepository creates an empty repository.
func NewLocationRepository() *LocationRepository {
	return &LocationRepository{locations: make(map[string]*entities.Location)}
}

func (r *LocationRepository) Create(_ context.Context, location *entities.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.locations {
		if !existing.IsDeleted() && existing.UserID == location.UserID && existing.City == location.City {
			return fmt.Errorf("location %s: %w", location.City, ports.ErrDuplicate)
		}
	}
	clone := *location
	r.locations[location.ID] = &clone
	return nil
}

func (r *LocationRepository) GetByID(_ context.Context, id string) (*entities.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	location, ok := r.locations[id]
	if !ok || location.IsDeleted() {
		return nil, fmt.Errorf("location %s: %w", id, ports.ErrNotFound)
	}
	clone := *location
	return &clone, nil
}

func (r *LocationRepository) ExistsForUser(_ context.Context, userID, city string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	city = entities.NormalizeCity(city)
	for _, location := range r.locations {
		if !location.IsDeleted() && location.UserID == userID && location.City == city {
			return true, nil
		}
	}
	return false, nil
}

// ListByUser orders favorites by creation time, newest first.
func (r *LocationRepository) ListByUser(_ context.Context, userID string, page common.PaginationParams) ([]*entities.Location, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*entities.Location
	for _, location := range r.locations {
		if !location.IsDeleted() && location.UserID == userID {
			clone := *location
			owned = append(owned, &clone)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	total := len(owned)
	page = page.Normalize()
	start := page.CalculateOffset()
	if start >= total {
		return []*entities.Location{}, total, nil
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return owned[start:end], total, nil
}

func (r *LocationRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	location, ok := r.locations[id]
	if !ok || location.IsDeleted() {
		return fmt.Errorf("location %s: %w", id, ports.ErrNotFound)
	}
	location.SoftDelete(time.Now())
	return nil
}

func (r *LocationRepository) DistinctCities(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, location := range r.locations {
		if !location.IsDeleted() {
			seen[location.City] = struct{}{}
		}
	}
	cities := make([]string, 0, len(seen))
	for city := range seen {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities, nil
}

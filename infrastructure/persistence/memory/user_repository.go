// Package memory holds map-backed repositories for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
)

// UserRepository keeps users in a map keyed by id.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entities.User
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entities.User)}
}

func (r *UserRepository) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ports.ErrDuplicate)
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok || user.IsDeleted() {
		return nil, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string, includeDeleted bool) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = entities.NormalizeEmail(email)
	for _, user := range r.users {
		if user.Email != email {
			continue
		}
		if user.IsDeleted() && !includeDeleted {
			continue
		}
		clone := *user
		return &clone, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, ports.ErrNotFound)
}

func (r *UserRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.IsDeleted() {
		return fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	user.SoftDelete(time.Now())
	return nil
}

// Ping always succeeds.
func (r *UserRepository) Ping(context.Context) error { return nil }

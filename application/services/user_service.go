package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"
)

// UserService manages accounts
type UserService struct {
	users     ports.UserRepository
	cache     *cache.Accessor
	publisher ports.EventPublisher
	logger    ports.Logger
	userTTL   atomic.Int64
}

// NewUserService creates a new user service
func NewUserService(users ports.UserRepository, accessor *cache.Accessor, publisher ports.EventPublisher, logger ports.Logger) *UserService {
	s := &UserService{
		users:     users,
		cache:     accessor,
		publisher: publisher,
		logger:    logger,
	}
	s.userTTL.Store(int64(cache.DefaultUserTTL))
	return s
}

// SetCacheTTL changes how long profiles stay cached. Non-positive values are ignored.
func (s *UserService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.userTTL.Store(int64(ttl))
	}
}

// CreateUser persists a new account. The email is normalized before it is stored.
func (s *UserService) CreateUser(ctx context.Context, email, passwordHash string) (*entities.User, error) {
	user := entities.NewUser(email, passwordHash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, appErrors.NewBadRequestError(appErrors.CodeEmailAlreadyExists, appErrors.MsgEmailAlreadyExists)
		}
		return nil, appErrors.NewDatabaseError("create user", err)
	}

	s.logger.Info("User created", "user_id", user.ID)
	return user, nil
}

// FindByEmail returns the user registered with email, or nil when there is none.
func (s *UserService) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*entities.User, error) {
	user, err := s.users.GetByEmail(ctx, entities.NormalizeEmail(email), includeDeleted)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, appErrors.NewDatabaseError("find user by email", err)
	}
	return user, nil
}

// FindByID returns the live user without its password hash. Results are cached briefly.
func (s *UserService) FindByID(ctx context.Context, id string) (*entities.User, error) {
	user, err := cache.GetOrCompute(ctx, s.cache, cache.UserKey(id), time.Duration(s.userTTL.Load()),
		func(ctx context.Context) (*entities.User, error) {
			user, err := s.users.GetByID(ctx, id)
			if errors.Is(err, ports.ErrNotFound) {
				return nil, appErrors.NewBadRequestError(appErrors.CodeAccountNotFound, appErrors.MsgAccountNotFound)
			}
			if err != nil {
				return nil, appErrors.NewDatabaseError("find user", err)
			}
			return user.Sanitized(), nil
		})
	if err != nil {
		return nil, MapUpstreamError(err)
	}
	return user, nil
}

// Remove soft deletes the account and evicts its cached profile.
func (s *UserService) Remove(ctx context.Context, id string) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return appErrors.NewBadRequestError(appErrors.CodeAccountNotFound, appErrors.MsgAccountNotFound)
		}
		return appErrors.NewDatabaseError("delete user", err)
	}

	if err := s.cache.Delete(ctx, cache.UserKey(id)); err != nil {
		s.logger.Warn("Failed to evict cached user", "user_id", id, "error", err)
	}

	publish(ctx, s.publisher, s.logger, events.NewUserDeleted(id, time.Now().UTC()))
	s.logger.Info("User removed", "user_id", id)
	return nil
}

// publish sends evts and only logs failures; the write they describe has already happened.
func publish(ctx context.Context, publisher ports.EventPublisher, logger ports.Logger, evts ...events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.Warn("Failed to publish domain events", "count", len(evts), "error", err)
	}
}

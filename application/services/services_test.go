package services

import (
	"context"
	"sync"
	"time"

	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	"github.com/Mr-Georgie/weather-api/infrastructure/external"
	"github.com/Mr-Georgie/weather-api/infrastructure/logging"
	"github.com/Mr-Georgie/weather-api/infrastructure/persistence/memory"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
)

type recordingPublisher struct {
	mu   sync.Mutex
	evts []events.DomainEvent
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evts = append(p.evts, evts...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.evts))
	for _, e := range p.evts {
		out = append(out, e.GetEventType())
	}
	return out
}

type fixture struct {
	store     *cache.MemoryStore
	accessor  *cache.Accessor
	users     *memory.UserRepository
	locations *memory.LocationRepository
	publisher *recordingPublisher
	userSvc   *UserService
	authSvc   *AuthService
	locSvc    *LocationService
	tokens    *auth.JWTService
}

func newFixture() *fixture {
	logger := logging.NewNop()
	f := &fixture{
		store:     cache.NewMemoryStore(0),
		users:     memory.NewUserRepository(),
		locations: memory.NewLocationRepository(),
		publisher: &recordingPublisher{},
	}
	f.accessor = cache.NewAccessor(f.store, logger)

	tokens, err := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", Issuer: "weather-api", TTL: time.Hour})
	if err != nil {
		panic(err)
	}
	f.tokens = tokens

	f.userSvc = NewUserService(f.users, f.accessor, f.publisher, logger)
	f.authSvc = NewAuthService(f.userSvc, auth.NewPasswordHasher(4), tokens, f.publisher, logger)
	f.locSvc = NewLocationService(f.locations, f.publisher, logger)
	return f
}

func testPolicy() external.RetryPolicy {
	return external.RetryPolicy{
		Retries:   1,
		Timeout:   200 * time.Millisecond,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	}
}

package rest

import (
	"net/http"
	"time"

	"github.com/Mr-Georgie/weather-api/interfaces/http/rest/handlers"
	"github.com/Mr-Georgie/weather-api/interfaces/http/rest/middleware"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"
	"github.com/Mr-Georgie/weather-api/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the transport settings.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	EnableMetrics  bool
	CircuitBreaker middleware.CircuitBreakerConfig
}

// Handlers groups the endpoint handlers.
type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Location *handlers.LocationHandler
	Weather  *handlers.WeatherHandler
	Health   *handlers.HealthHandler
}

// Limiters holds one limiter per rate limit scope.
type Limiters struct {
	Public        auth.RateLimiter
	Authenticated auth.RateLimiter
}

// Router creates and configures the HTTP router
type Router struct {
	cfg          RouterConfig
	handlers     Handlers
	limiters     Limiters
	tokens       *auth.JWTService
	metrics      *observability.Collector
	logger       *zap.Logger
	errorHandler *appErrors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(
	cfg RouterConfig,
	h Handlers,
	limiters Limiters,
	tokens *auth.JWTService,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *appErrors.ErrorHandler,
) *Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.CircuitBreaker.Name == "" {
		cfg.CircuitBreaker = middleware.DefaultCircuitBreakerConfig("weather")
	}
	return &Router{
		cfg:          cfg,
		handlers:     h,
		limiters:     limiters,
		tokens:       tokens,
		metrics:      metrics,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics && rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.Timeout(rt.cfg.RequestTimeout, rt.errorHandler))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.Handle(w, r, appErrors.NewNotFoundError("Route"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.handlers.Health.Health)
	router.Get("/ready", rt.handlers.Health.Ready)
	router.Get("/docs/doc.json", handlers.NewDocsHandler(rt.errorHandler).Spec)
	if rt.cfg.EnableMetrics && rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	public := middleware.RateLimit(rt.limiters.Public, auth.ScopePublic, rt.errorHandler, rt.logger)
	authenticated := middleware.RateLimit(rt.limiters.Authenticated, auth.ScopeAuthenticated, rt.errorHandler, rt.logger)
	requireUser := middleware.Authenticate(rt.tokens, rt.errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", rt.handlers.Health.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.Use(public)
			r.Post("/signup", rt.handlers.Auth.Signup)
			r.Post("/login", rt.handlers.Auth.Login)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireUser, authenticated)
			r.Get("/", rt.handlers.User.GetProfile)
			r.Delete("/", rt.handlers.User.DeleteAccount)
		})

		r.Route("/locations", func(r chi.Router) {
			r.Use(requireUser, authenticated)
			r.Post("/", rt.handlers.Location.Create)
			r.Get("/", rt.handlers.Location.List)
			r.Delete("/{id}", rt.handlers.Location.Remove)
		})

		r.Route("/weather", func(r chi.Router) {
			r.Use(public)
			r.Use(middleware.CircuitBreaker(rt.cfg.CircuitBreaker, rt.errorHandler, rt.logger, rt.stateRecorder()))
			r.Get("/{city}", rt.handlers.Weather.Current)
			r.Get("/{city}/forecast", rt.handlers.Weather.Forecast)
		})
	})

	return router
}

func (rt *Router) stateRecorder() middleware.StateRecorder {
	if rt.metrics == nil {
		return nil
	}
	return rt.metrics
}

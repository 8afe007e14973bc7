package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/securepass/vault-api/internal/api/handler"
	"github.com/securepass/vault-api/internal/api/middleware"
	"github.com/securepass/vault-api/internal/core/ports"
)

// Deps carries everything the router needs. Mongo and Redis are used only by
// the readiness probe; when either is nil the probe is not registered, which
// keeps the router constructible in tests without real backends.
type Deps struct {
	Auth      ports.AuthService
	Vault     ports.VaultService
	Limiter   handler.LoginLimiter
	Audit     ports.AuditSink
	JWTSecret string
	Logger    zerolog.Logger
	Mongo     *mongo.Database
	Redis     *redis.Client

	// Metrics enables the echoprometheus middleware and the /metrics route.
	// Off in tests: the middleware registers collectors in the default
	// registry and a second router would panic on duplicate registration.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if deps.Metrics {
		e.Use(echoprometheus.NewMiddleware("securepass"))
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Limiter, deps.Audit, deps.Logger)
	vaultHandler := handler.NewVaultHandler(deps.Vault, deps.Audit)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/verify-2fa", authHandler.VerifyTwoFactor)
	e.POST("/login", authHandler.Login)

	// --- Vault routes (bearer token required) ---
	vault := e.Group("/passwords", authMiddleware)
	vault.GET("", vaultHandler.List)
	vault.POST("", vaultHandler.Add)
	vault.DELETE("/:id", vaultHandler.Delete)

	// --- Observability ---
	if deps.Metrics {
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	if deps.Mongo != nil && deps.Redis != nil {
		healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)
		e.GET("/health/ready", healthDepsHandler.Readiness)
	}

	return e
}

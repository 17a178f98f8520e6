package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/Zulfatok/mael/docs"
	"github.com/Zulfatok/mael/internal/api/handler"
	"github.com/Zulfatok/mael/internal/api/middleware"
	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
	"github.com/Zulfatok/mael/internal/infrastructure/config"
	"github.com/Zulfatok/mael/internal/infrastructure/queue"
)

// Deps carries everything the router needs. Services are built in main so
// tests can wire the router against stubs.
type Deps struct {
	Config     *config.Config
	Log        zerolog.Logger
	Accounts   ports.AccountService
	Sessions   ports.SessionService
	Resets     ports.ResetService
	Aliases    ports.AliasService
	Inbox      ports.InboxService
	Dispatcher *queue.Dispatcher
	Mongo      *mongo.Database
	Redis      *redis.Client
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("mael"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(
		d.Accounts, d.Sessions, d.Resets,
		d.Config.Auth.SessionTTL, d.Config.Auth.SecureCookies,
	)
	aliasHandler := handler.NewAliasHandler(d.Aliases, d.Config.MailDomain)
	inboxHandler := handler.NewInboxHandler(d.Inbox)
	adminHandler := handler.NewAdminHandler(d.Accounts)
	ingestHandler := handler.NewIngestHandler(d.Dispatcher, d.Config.Ingest.MaxMessageBytes)

	sessionAuth := middleware.NewSessionAuth(d.Sessions, d.Config.Auth.SweepInterval, d.Log)

	// --- Public routes ---
	e.POST("/v1/auth/signup", authHandler.Signup)
	e.POST("/v1/auth/login", authHandler.Login)
	e.POST("/v1/auth/reset", authHandler.ResetRequest)
	e.POST("/v1/auth/reset/confirm", authHandler.ResetConfirm)
	// Public so a client with an expired session can still drop its stale
	// cookie. Destroy is idempotent.
	e.POST("/v1/auth/logout", authHandler.Logout)

	// --- Session-protected routes ---
	v1 := e.Group("/v1", sessionAuth.Middleware())
	v1.GET("/me", authHandler.Me)
	v1.POST("/aliases", aliasHandler.Create)
	v1.GET("/aliases", aliasHandler.List)
	v1.DELETE("/aliases/:id", aliasHandler.Delete)
	v1.GET("/inbox", inboxHandler.List)
	v1.GET("/inbox/:id", inboxHandler.Get)
	v1.DELETE("/inbox/:id", inboxHandler.Delete)

	// --- Admin routes ---
	admin := v1.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.PATCH("/users/:id/limit", adminHandler.SetAliasLimit)
	admin.PATCH("/users/:id/disabled", adminHandler.SetDisabled)

	// --- Delivery-agent route (machine-to-machine, bearer JWT) ---
	e.POST("/v1/ingest", ingestHandler.Ingest, middleware.AgentAuth(d.Config.Ingest.JWTSecret))

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness)  // readiness – are dependencies up?

	return e
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/kickoff/storefront-api/docs"
	"github.com/kickoff/storefront-api/internal/api/handler"
	"github.com/kickoff/storefront-api/internal/api/middleware"
	"github.com/kickoff/storefront-api/internal/core/ports"
	"github.com/kickoff/storefront-api/internal/core/service"
	mongostore "github.com/kickoff/storefront-api/internal/infrastructure/db/mongo"
	redisstore "github.com/kickoff/storefront-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	delivery ports.OTPDelivery,
	audit ports.AuditRecorder,
	svcCfg service.Config,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("storefront"))

	// --- Dependencies ---
	accountRepo := mongostore.NewAccountRepository(db)
	attemptStore := redisstore.NewOTPAttemptStore(rdb)
	authService := service.NewAuthService(accountRepo, delivery, attemptStore, audit, svcCfg, log)
	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(authService)
	authMiddleware := middleware.Auth(svcCfg.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/verify-otp", authHandler.VerifyOTP)
	e.GET("/auth/me", accountHandler.Me, authMiddleware)

	// --- Admin routes ---
	admin := e.Group("/admin", authMiddleware, middleware.RBAC("admin"))
	admin.GET("/accounts/:id", accountHandler.AdminGet)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

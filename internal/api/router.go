package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rewarddesk/coupon-service/internal/api/handler"
	"github.com/rewarddesk/coupon-service/internal/api/middleware"
	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

// RouterDeps carries everything the HTTP layer needs. Services are constructed
// in main so the claim pipeline (locks, dispatcher, reward client) has a single
// owner.
type RouterDeps struct {
	DB         *mongo.Database
	Redis      *redis.Client
	Redemption ports.RedemptionService
	Admin      ports.AdminService
	Auth       ports.AuthService
	Dedup      handler.DeliveryDedup
	JWTSecret  string
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("coupon"))

	// --- Handlers ---
	claimHandler := handler.NewClaimHandler(deps.Redemption, deps.Dedup, deps.Log)
	adminHandler := handler.NewAdminHandler(deps.Admin)
	authHandler := handler.NewAuthHandler(deps.Auth)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB, deps.Redis)

	authRequired := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/token", authHandler.IssueToken)
	e.POST("/auth/register", authHandler.Register,
		authRequired, middleware.RequireRole(domain.RoleAdmin))

	// --- Claim route (chat transport) ---
	e.POST("/v1/claims", claimHandler.Claim,
		authRequired, middleware.RequireRole(domain.RoleTransport, domain.RoleAdmin))

	// --- Admin reporting ---
	admin := e.Group("/v1/admin", authRequired, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/activity", adminHandler.Activity)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/carenethq/carenet/internal/auth"
	"github.com/carenethq/carenet/internal/cache"
	"github.com/carenethq/carenet/internal/handlers"
	"github.com/carenethq/carenet/internal/middleware"
	"github.com/carenethq/carenet/internal/quota"
	"github.com/carenethq/carenet/internal/scope"
	"github.com/carenethq/carenet/internal/services"
)

// RateLimitConfig tunes the per-IP request budget applied in front of the gateway.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Deps carries the long-lived collaborators the router wires into handlers.
// Store is optional; when nil, rate limiting falls back to an in-process store.
type Deps struct {
	DB        *gorm.DB
	JWT       *iauth.JWTService
	Sessions  *iauth.SessionService
	Login     *iauth.LoginService
	Store     cache.Store
	RateLimit RateLimitConfig

	// PublicPaths lists extra exact paths the gateway lets through without a
	// session, on top of the built-in allowlist.
	PublicPaths []string
}

// NewRouter builds the Gin engine, wires the middleware chain and registers
// every route group. The gateway runs after rate limiting so abusive clients
// are shed before any token or database work.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("router: database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("router: jwt service must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("router: session service must be provided")
	}
	if deps.Login == nil {
		return nil, fmt.Errorf("router: login service must be provided")
	}

	var rateStore middleware.RateStore
	if deps.Store != nil {
		rateStore = middleware.NewSharedRateStore(deps.Store)
	} else {
		rateStore = middleware.NewMemoryRateStore()
	}
	rateCfg := deps.RateLimit
	if rateCfg.Requests <= 0 {
		rateCfg.Requests = 100
	}
	if rateCfg.Window <= 0 {
		rateCfg.Window = time.Minute
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(rateStore, rateCfg.Requests, rateCfg.Window))
	r.Use(middleware.Gateway(deps.JWT, deps.DB, deps.PublicPaths...))

	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/api/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	audit, err := services.NewAuditService(deps.DB)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(deps.DB)
	if err != nil {
		return nil, err
	}
	networks, err := services.NewNetworkService(deps.DB)
	if err != nil {
		return nil, err
	}
	guard, err := scope.NewGuard(deps.DB)
	if err != nil {
		return nil, err
	}
	patients, err := services.NewPatientService(deps.DB, guard)
	if err != nil {
		return nil, err
	}
	ledger, err := quota.NewLedger(deps.DB, quota.LedgerConfig{})
	if err != nil {
		return nil, err
	}
	subscriptions, err := services.NewSubscriptionService(deps.DB, ledger)
	if err != nil {
		return nil, err
	}

	registerAuthRoutes(r, handlers.NewAuthHandler(deps.Login, deps.Sessions, users, audit))
	registerUserRoutes(r, handlers.NewUserHandler(users, audit))
	registerNetworkRoutes(r, handlers.NewNetworkHandler(networks, audit))
	registerPatientRoutes(r, handlers.NewPatientHandler(patients))
	registerSubscriptionRoutes(r, handlers.NewSubscriptionHandler(subscriptions, audit))
	registerAuditRoutes(r, handlers.NewAuditHandler(audit))

	return r, nil
}

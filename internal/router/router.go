package router

import (
	"context"
	"time"

	"github.com/Code-Vida/apistock/internal/config"
	"github.com/Code-Vida/apistock/internal/graph"
	"github.com/Code-Vida/apistock/internal/handler"
	"github.com/Code-Vida/apistock/internal/infra"
	"github.com/Code-Vida/apistock/internal/middleware"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/service"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived collaborators created once in main.
type Deps struct {
	DB       *gorm.DB
	RDB      *redis.Client
	FiscalCB *infra.CircuitBreaker
	Fiscal   service.FiscalQueue
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Resolver/Handler ← Service ← Repository ← DB/Redis
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiLimiter := middleware.APIRateLimiter(1000, time.Minute)
	loginLimiter := middleware.LoginRateLimiter()
	apiLimiter.StartPurge(ctx, 5*time.Minute)
	loginLimiter.StartPurge(ctx, 5*time.Minute)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Middleware())

	// ── Persistence ──────────────────────────────────────────────────────────
	repos := repository.NewFactory(deps.DB)
	uow := repository.NewUnitOfWork(deps.DB, cfg.TxTimeout)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewLedger(repos)
	authSvc := service.NewAuthService(repos, uow, cfg)
	svc := graph.Services{
		Auth:     authSvc,
		Store:    service.NewStoreService(repos),
		Catalog:  service.NewCatalogService(repos, uow, ledger),
		Cash:     service.NewCashService(repos, uow, cfg.PDFStoragePath),
		Sales:    service.NewSaleService(repos, uow, ledger, deps.Fiscal),
		Returns:  service.NewReturnService(repos, uow, ledger),
		Purchase: service.NewPurchaseService(repos, uow, ledger),
	}
	schema := graph.NewSchema(graph.NewResolver(svc))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.RDB, deps.FiscalCB))

	auth := r.Group("/v1/auth", loginLimiter.Middleware())
	{
		auth.POST("/signup", authH.SignUp)
		auth.POST("/login", authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected: every GraphQL operation runs as the token's principal.
	r.POST("/graphql", middleware.JWTAuth(cfg.JWTSecret), handler.GraphQL(schema))

	admin := r.Group("/v1/admin", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(tenant.RoleAdmin))
	{
		admin.GET("/fiscal/backlog", handler.FiscalBacklog(deps.RDB))
	}

	return r
}

package app

import (
	"github.com/Trust-Mwendabai/CDIMS/internal/auth"
	"github.com/Trust-Mwendabai/CDIMS/internal/cache"
	"github.com/Trust-Mwendabai/CDIMS/internal/config"
	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"
	"github.com/Trust-Mwendabai/CDIMS/internal/handlers"
	"github.com/Trust-Mwendabai/CDIMS/internal/repo"
	"github.com/Trust-Mwendabai/CDIMS/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	cookies := auth.CookieOptions{
		Secure:      cfg.HTTP.SecureCookies,
		SessionTTL:  int(cfg.Auth.SessionTTL.Duration().Seconds()),
		RememberTTL: int(cfg.Auth.RememberTTL.Duration().Seconds()),
	}

	sessionStore := auth.NewRedisStore(rdb, cfg.Auth.SessionTTL.Duration(), cfg.Auth.RememberTTL.Duration())
	userRepo := repo.NewPGUserRepo(db)
	tokenRepo := repo.NewPGResetTokenRepo(db)
	attemptRepo := repo.NewPGLoginAttemptRepo(db)
	guard := service.NewBruteForceGuard(attemptRepo, cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutWindow.Duration())
	accountSvc := service.NewAccountService(userRepo, tokenRepo, guard, cfg.Auth.BcryptCost, cfg.Auth.ResetTokenTTL.Duration())
	authHandler := handlers.NewAuthHandler(sessionStore, accountSvc, cookies, cfg.App.Env)
	registerAuthRoutes(api, authHandler, sessionStore, accountSvc, cookies)

	protected := api.Group("", auth.RequireSession(sessionStore, accountSvc, cookies))
	statsCache := cache.NewStatsCache(rdb, cfg.Redis.DefaultTTL.Duration())
	statsSvc := service.NewStatsService(statsCache)
	dashboardHandler := handlers.NewDashboardHandler(statsSvc)
	registerDashboardRoutes(protected, dashboardHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Climate Data Portal API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, sessions auth.Store, accounts *service.AccountService, cookies auth.CookieOptions) {
	api.GET("/auth/csrf", h.CSRF)

	// Every state-changing auth route sits behind the CSRF check.
	guarded := api.Group("", auth.ValidateCSRF(sessions))
	guarded.POST("/auth/login", h.Login)
	guarded.POST("/auth/register", h.Register)
	guarded.POST("/auth/logout", h.Logout)
	guarded.POST("/auth/forgot-password", h.ForgotPassword)
	guarded.POST("/auth/reset-password", h.ResetPassword)

	api.GET("/auth/me", auth.RequireSession(sessions, accounts, cookies), h.Me)
}

func registerDashboardRoutes(api *gin.RouterGroup, h *handlers.DashboardHandler) {
	api.GET("/dashboard/summary", h.Summary)
	api.GET("/dashboard/admin", auth.RequireRole(dom.RoleAdmin), h.Admin)
}

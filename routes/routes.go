package routes

import (
	"net/http"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/handlers"
	"github.com/Bekzhanizb/QuitTrackerBackend/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup builds the engine with every endpoint mounted.
func Setup(h *handlers.Handler) *gin.Engine {
	cfg := h.Cfg

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-CSRF-Token", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-CSRF-Token", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now(),
			"cache":     h.Cache.Enabled(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	api.Use(middleware.RateLimitMiddleware(h.Cache, cfg.RateLimitMax, cfg.RateLimitWindow))
	if cfg.CSRFAuthKey != "" {
		api.Use(middleware.CSRFProtection([]byte(cfg.CSRFAuthKey), cfg.IsProduction(), cfg.CORSOrigins))
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/guest", h.Guest)
	}

	user := api.Group("/user/:id")
	user.Use(middleware.UserAuth([]byte(cfg.JWTSecret), cfg.AuthRequired))
	user.Use(middleware.InvalidateUserCache(h.Cache))
	{
		user.GET("", middleware.CacheMiddleware(h.Cache, cfg.UserCacheTTL), h.GetUser)
		user.POST("/profile", h.SetProfile)

		user.POST("/journal", h.AppendJournal)
		user.PUT("/journal/:entryId", h.UpdateJournal)
		user.DELETE("/journal/:entryId", h.RemoveJournal)

		user.POST("/pledge", h.Pledge)
		user.POST("/reset", h.Reset)

		user.POST("/data/import", h.Import)
		user.GET("/data/export", h.Export)

		user.GET("/progress", h.Progress)

		user.GET("/celebrations", h.GetCelebrations)
		user.POST("/celebrations/:category/:itemId/dismiss", h.DismissCelebration)
		user.GET("/celebrations/stream", h.CelebrationStream)
	}

	if cfg.AdminToken != "" {
		admin := api.Group("/admin", middleware.AdminAuth(cfg.AdminToken))
		admin.GET("/users", h.ListUsers)
		admin.GET("/summaries", h.Summaries)
	}

	return r
}

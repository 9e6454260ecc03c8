package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/handler"
	"github.com/stemsi/studygroup-backend/internal/middleware"
	"github.com/stemsi/studygroup-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	StudyGroup *handler.StudyGroupHandler
	// Activity is nil when Redis is not configured.
	Activity *handler.ActivityHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// A nil limiter leaves write routes unthrottled.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{limiter.Middleware(), h}
	}

	// ─── 1. Study Groups ───────────────────────────────────────────────
	groups := router.Group("/api/v1/study-groups")
	{
		groups.GET("", handlers.StudyGroup.GetAll)
		groups.GET("/search", handlers.StudyGroup.Search)
		groups.GET("/:id", handlers.StudyGroup.GetByID)
		groups.POST("", limited(handlers.StudyGroup.Create)...)
		groups.POST("/:id/join", limited(handlers.StudyGroup.Join)...)
		groups.POST("/:id/leave", limited(handlers.StudyGroup.Leave)...)
	}

	// ─── 2. Activity WebSocket ─────────────────────────────────────────
	if handlers.Activity != nil {
		ws := router.Group("/ws/v1")
		{
			ws.GET("/study-groups/:id/activity", handlers.Activity.Stream)
		}
	}

	return router
}

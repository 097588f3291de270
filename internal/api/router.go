package api

import (
	"github.com/gin-gonic/gin"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/api/handler"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/api/middleware"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
)

// RouterConfig holds dependencies and settings for the HTTP router.
type RouterConfig struct {
	Mode        string
	CORS        middleware.CORSConfig
	Logger      *logger.Logger
	SyncManager *service.SyncManager
	Answerer    *service.AnswererService
	Store       service.VideoStore
	Exporter    *service.ExporterService
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *RouterConfig) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	syncHandler := handler.NewSyncHandler(cfg.SyncManager)
	askHandler := handler.NewAskHandler(cfg.Answerer)
	channelHandler := handler.NewChannelHandler(cfg.Store, cfg.Exporter)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Sync runs
		v1.POST("/sync", syncHandler.Start)
		v1.POST("/sync/stop", syncHandler.Stop)
		v1.GET("/sync/status", syncHandler.Status)

		// Question answering
		v1.POST("/ask", askHandler.Ask)

		// Channels
		v1.GET("/channels", channelHandler.List)
		v1.GET("/channels/:id/videos", channelHandler.Videos)
		v1.DELETE("/channels/:id", channelHandler.Delete)
		v1.GET("/channels/:id/export", channelHandler.Export)
	}

	return r
}

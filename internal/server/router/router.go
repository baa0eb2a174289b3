package router

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/config"
	"github.com/mamadbah2/pricecheck/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
// webhook may be nil when the WhatsApp integration is not configured.
func New(cfg config.ServerConfig, comparison *handlers.ComparisonHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/sessions", comparison.CreateSession)
	sessions := r.Group("/sessions/:id")
	{
		sessions.GET("", comparison.GetSession)
		sessions.DELETE("", comparison.DeleteSession)
		sessions.PUT("/sort", comparison.SetSort)
		sessions.POST("/entries", comparison.Submit)
		sessions.POST("/entries/:entryID/edit", comparison.BeginEdit)
		sessions.POST("/edit/cancel", comparison.CancelEdit)
		sessions.POST("/entries/:entryID/delete", comparison.RequestDelete)
		sessions.POST("/delete/confirm", comparison.ConfirmDelete)
		sessions.POST("/delete/cancel", comparison.CancelDelete)
		sessions.POST("/undo", comparison.Undo)
		sessions.POST("/clear", comparison.ClearAll)
		sessions.POST("/attachment", comparison.Attach)
		sessions.DELETE("/attachment", comparison.Detach)
		sessions.GET("/export", comparison.Export)
	}

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Bool("webhook", webhook != nil))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

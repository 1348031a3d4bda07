package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/engine"
)

// RouterConfig holds configuration for the gateway router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router for the local gateway
func SetupRouter(eng *engine.Engine, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	h := NewHandler(eng, logger)
	api := r.Group("/api")
	api.Use(APIKeyAuth(cfg.APIKey))
	h.RegisterRoutes(api)

	return r
}

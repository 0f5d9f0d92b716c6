package websocket

import (
	"github.com/gin-gonic/gin"

	"go-pickup-feed/internal/infrastructure/config"
	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
)

// InitWebSocketRouter wires the realtime endpoints.
func InitWebSocketRouter(log logger.Logger, h *hub.Hub, cfg config.HubConfig, rg *gin.RouterGroup) {
	wsHandler := NewWebSocketHandler(h, cfg, log)

	wsGroup := rg.Group("/ws")
	wsGroup.GET("/stats", wsHandler.Stats)
	wsGroup.GET("/:user_id", wsHandler.Connect)
}

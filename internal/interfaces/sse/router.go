package sse

import (
	"github.com/gin-gonic/gin"

	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
)

func InitSSERouter(log logger.Logger, h *hub.Hub, rg *gin.RouterGroup) {
	sseHandler := NewServerSentEventHandler(h, log)

	sseGroup := rg.Group("/sse")
	sseGroup.GET("", sseHandler.Connect)
}

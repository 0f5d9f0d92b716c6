package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pickup-feed/internal/infrastructure/config"
	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
	"go-pickup-feed/internal/interfaces/rest/v1/handler"
	"go-pickup-feed/internal/interfaces/sse"
	"go-pickup-feed/internal/interfaces/websocket"
	"go-pickup-feed/internal/port/inbound"
)

func InitRouter(cfg *config.Config, hubInstance *hub.Hub, feed inbound.FeedUseCase, log logger.Logger) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	rootGroup := router.Group("")

	rootGroup.GET("/hub/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"connections": hubInstance.ConnectionCount(),
		})
	})

	feedHandler := handler.NewFeedHandler(feed, log)
	apiGroup := rootGroup.Group("/api")
	{
		apiGroup.GET("/posts", feedHandler.GetPosts)
		apiGroup.POST("/posts", feedHandler.CreatePost)
		apiGroup.DELETE("/posts/:post_id", feedHandler.DeletePost)
		apiGroup.POST("/posts/:post_id/like", feedHandler.TogglePostLike)
		apiGroup.POST("/posts/:post_id/comments", feedHandler.CreateComment)
		apiGroup.DELETE("/comments/:comment_id", feedHandler.DeleteComment)
		apiGroup.POST("/comments/:comment_id/like", feedHandler.ToggleCommentLike)
	}

	websocket.InitWebSocketRouter(log, hubInstance, cfg.Hub, rootGroup)
	sse.InitSSERouter(log, hubInstance, rootGroup)

	return router
}

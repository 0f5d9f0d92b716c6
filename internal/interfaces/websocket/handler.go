package websocket

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-pickup-feed/internal/infrastructure/config"
	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
)

// WebSocketHandler upgrades feed clients and hands each connection to the
// lifecycle supervisor.
type WebSocketHandler struct {
	hub        *hub.Hub
	supervisor *hub.Supervisor
	cfg        config.HubConfig
	logger     logger.Logger
	upgrader   websocket.Upgrader
}

func NewWebSocketHandler(h *hub.Hub, cfg config.HubConfig, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        h,
		supervisor: hub.NewSupervisor(h, log),
		cfg:        cfg,
		logger:     log.WithField("handler", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checking is left to the deployment's proxy.
				return true
			},
		},
	}
}

// Connect handles GET /ws/:user_id?location_filter=... and blocks for the
// lifetime of the connection.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var filter *string
	if v, ok := c.GetQuery("location_filter"); ok && v != "" {
		filter = &v
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Errorf("failed to upgrade connection for user %d: %v", userID, err)
		return
	}

	wsConn := hub.NewWebSocketConn(conn, h.logger, h.cfg.SendBuffer)
	h.supervisor.Serve(c.Request.Context(), wsConn, userID, filter)
}

// Stats reports aggregate connection counts without requiring an open
// connection.
func (h *WebSocketHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}

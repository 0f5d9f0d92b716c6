package sse

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-pickup-feed/internal/infrastructure/hub"
	"go-pickup-feed/internal/infrastructure/logger"
)

// ServerSentEventHandler serves a read-only view of the feed stream for
// clients that cannot hold a websocket. There is no inbound control channel,
// so the location filter is fixed for the life of the stream.
type ServerSentEventHandler struct {
	hub    *hub.Hub
	logger logger.Logger
}

func NewServerSentEventHandler(h *hub.Hub, log logger.Logger) *ServerSentEventHandler {
	return &ServerSentEventHandler{
		hub:    h,
		logger: log.WithField("handler", "sse"),
	}
}

// Connect handles GET /sse?user_id=...&location_filter=... and blocks until
// the client goes away.
func (h *ServerSentEventHandler) Connect(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var filter *string
	if v, ok := c.GetQuery("location_filter"); ok && v != "" {
		filter = &v
	}

	conn := hub.NewSSEConn(c.Request.Context(), c.Writer, h.logger)
	handle := h.hub.Attach(conn, userID, filter)
	defer func() {
		h.hub.Detach(handle)
		h.logger.Infof("sse stream %s ended", handle)
	}()

	greeting := &hub.Envelope{
		Type: hub.TypeConnectionEstablished,
		Data: map[string]any{
			"user_id":           userID,
			"location_filter":   filter,
			"total_connections": h.hub.ConnectionCount(),
		},
	}
	if err := conn.Send(c.Request.Context(), greeting); err != nil {
		h.logger.Errorf("failed to send sse greeting: %v", err)
		return
	}

	select {
	case <-conn.Context().Done():
	case <-c.Request.Context().Done():
	}
}

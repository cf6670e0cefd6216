package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectcrm/internal/realtime"
)

type AlertHandler struct {
	hub *realtime.AlertHub
	log *zap.SugaredLogger
}

func NewAlertHandler(hub *realtime.AlertHub, log *zap.SugaredLogger) *AlertHandler {
	return &AlertHandler{hub: hub, log: log}
}

// GET /alerts/ws upgrades to a WebSocket that receives budget alerts as JSON.
func (h *AlertHandler) Subscribe(c *gin.Context) {
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := getUserAndRole(c)
	h.hub.Register(conn)
	h.log.Infow("[alerts][ws] subscribed", "user_id", userID, "subscribers", h.hub.Subscribers())

	_ = conn.Drain()
	h.hub.Unregister(conn)
	h.log.Infow("[alerts][ws] unsubscribed", "user_id", userID)
}

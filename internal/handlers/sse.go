package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/veloria/rapport-backend/internal/pkg/logger"
	"github.com/veloria/rapport-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{log: log.With("handler", "SSEHandler"), hub: hub}
}

// GET /sse/stream?user_id=
//
// Every event for a user is published on the channel named by their id, so
// a single subscription covers jobs, mood changes, and insights.
func (h *SSEHandler) SSEStream(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, userID.String())
	defer h.hub.CloseClient(client)

	h.log.Debug("SSE stream opened", "userID", userID, "clientID", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.log.Debug("SSE stream closed", "userID", userID, "clientID", client.ID)
}

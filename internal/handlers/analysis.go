package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/services"
)

// AnalysisHandler is the enqueue surface called by the chat transport. Both
// endpoints only queue work; scoring happens in the worker pool.
type AnalysisHandler struct {
	sessions services.SessionService
	jobs     services.JobService
}

func NewAnalysisHandler(sessions services.SessionService, jobs services.JobService) *AnalysisHandler {
	return &AnalysisHandler{sessions: sessions, jobs: jobs}
}

type enqueueMessageRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	TurnIndex *int      `json:"turn_index" binding:"required"`
}

// POST /internal/analysis/messages
func (h *AnalysisHandler) EnqueueMessage(c *gin.Context) {
	var req enqueueMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.sessions.EnqueueAnalysisByTurn(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, req.SessionID, *req.TurnIndex)
	if err != nil {
		respondSessionError(c, err, "enqueue_failed")
		return
	}
	RespondAccepted(c, gin.H{"job": job})
}

type enqueueInsightsRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// POST /internal/analysis/sessions/:id/insights
func (h *AnalysisHandler) EnqueueInsights(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req enqueueInsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, inserted, err := h.jobs.EnqueueSessionInsights(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, sessionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}
	RespondAccepted(c, gin.H{"job": job, "deduplicated": !inserted})
}

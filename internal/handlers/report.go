package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GET /api/sessions/:id/report?user_id=
func (h *ReportHandler) SessionReport(c *gin.Context) {
	userID, sessionID, ok := sessionIdentity(c)
	if !ok {
		return
	}
	report, err := h.reports.SessionReport(dbctx.Context{Ctx: c.Request.Context()}, userID, sessionID)
	if err != nil {
		respondSessionError(c, err, "session_report_failed")
		return
	}
	RespondOK(c, gin.H{"report": report})
}

// GET /api/sessions/:id/gates?user_id=
//
// Evaluates gates against the live session without persisting outcomes, so
// a client can poll pass/fail state before the session ends.
func (h *ReportHandler) ActiveGateCheck(c *gin.Context) {
	userID, sessionID, ok := sessionIdentity(c)
	if !ok {
		return
	}
	results, err := h.reports.ActiveGateCheck(dbctx.Context{Ctx: c.Request.Context()}, userID, sessionID)
	if err != nil {
		respondSessionError(c, err, "gate_check_failed")
		return
	}
	RespondOK(c, gin.H{"gates": results})
}

// GET /api/users/:id/traits?history_limit=
func (h *ReportHandler) LongTermTraits(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	historyLimit := 10
	if raw := c.Query("history_limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			historyLimit = n
		}
	}
	score, history, err := h.reports.LongTermTraits(dbctx.Context{Ctx: c.Request.Context()}, userID, historyLimit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "long_term_traits_failed", err)
		return
	}
	RespondOK(c, gin.H{"long_term": score, "history": history})
}

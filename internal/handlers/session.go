package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veloria/rapport-backend/internal/domain/chat"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/services"
)

// Auth lives in the upstream gateway; handlers trust the user id carried in
// the body or query string.
type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	Scenario    string    `json:"scenario"`
	MissionCode string    `json:"mission_code"`
}

// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.sessions.Create(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, chat.SessionPayload{
		Scenario:    req.Scenario,
		MissionCode: req.MissionCode,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "create_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

// GET /api/sessions?user_id=&limit=
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	sessions, err := h.sessions.ListByUser(dbctx.Context{Ctx: c.Request.Context()}, userID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_sessions_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/sessions/:id?user_id=
func (h *SessionHandler) Get(c *gin.Context) {
	userID, sessionID, ok := sessionIdentity(c)
	if !ok {
		return
	}
	session, err := h.sessions.Get(dbctx.Context{Ctx: c.Request.Context()}, userID, sessionID)
	if err != nil {
		respondSessionError(c, err, "get_session_failed")
		return
	}
	RespondOK(c, gin.H{"session": session})
}

// GET /api/sessions/:id/messages?user_id=
func (h *SessionHandler) ListMessages(c *gin.Context) {
	userID, sessionID, ok := sessionIdentity(c)
	if !ok {
		return
	}
	messages, err := h.sessions.ListMessages(dbctx.Context{Ctx: c.Request.Context()}, userID, sessionID)
	if err != nil {
		respondSessionError(c, err, "list_messages_failed")
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}

type appendMessageRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	Role    string    `json:"role" binding:"required"`
	Content string    `json:"content"`
}

// POST /api/sessions/:id/messages
func (h *SessionHandler) AppendMessage(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, job, err := h.sessions.AppendMessage(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, sessionID, req.Role, req.Content)
	if err != nil {
		respondSessionError(c, err, "append_message_failed")
		return
	}
	RespondOK(c, gin.H{"message": msg, "job": job})
}

type progressRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	ProgressPct float64   `json:"progress_pct"`
}

// POST /api/sessions/:id/progress
func (h *SessionHandler) ReportProgress(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.sessions.ReportProgress(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, sessionID, req.ProgressPct); err != nil {
		respondSessionError(c, err, "report_progress_failed")
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

type finalizeRequest struct {
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	EndReason string    `json:"end_reason" binding:"required"`
}

// POST /api/sessions/:id/finalize
func (h *SessionHandler) Finalize(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, job, err := h.sessions.Finalize(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, sessionID, req.EndReason)
	if err != nil {
		respondSessionError(c, err, "finalize_failed")
		return
	}
	RespondAccepted(c, gin.H{"session": session, "job": job})
}

func sessionIdentity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok := queryUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

func queryUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return uuid.Nil, false
	}
	return userID, true
}

func respondSessionError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		RespondError(c, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, services.ErrSessionEnded):
		RespondError(c, http.StatusConflict, "session_ended", err)
	case errors.Is(err, services.ErrInvalidRole):
		RespondError(c, http.StatusBadRequest, "invalid_role", err)
	default:
		RespondError(c, http.StatusInternalServerError, fallbackCode, err)
	}
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/services"
)

type JobsHandler struct {
	jobs services.JobService
}

func NewJobsHandler(jobs services.JobService) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// GET /api/jobs/:id?user_id=
func (h *JobsHandler) GetJobByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	job, err := h.jobs.GetByIDForUser(dbctx.Context{Ctx: c.Request.Context()}, userID, jobID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /api/jobs/latest?user_id=&entity_type=&entity_id=&type=
func (h *JobsHandler) GetLatestForEntity(c *gin.Context) {
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	entityType := c.Query("entity_type")
	jobType := c.Query("type")
	if entityType == "" || jobType == "" {
		RespondError(c, http.StatusBadRequest, "missing_filter", fmt.Errorf("entity_type and type are required"))
		return
	}
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	job, err := h.jobs.GetLatestForEntity(dbctx.Context{Ctx: c.Request.Context()}, userID, entityType, entityID, jobType)
	if err != nil {
		RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

type cancelJobRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// POST /api/jobs/:id/cancel
func (h *JobsHandler) Cancel(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	var req cancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.jobs.Cancel(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, jobID)
	if err != nil {
		RespondError(c, http.StatusConflict, "cancel_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veloria/rapport-backend/internal/domain/config"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/services"
)

type ConfigHandler struct {
	cfg services.ConfigService
}

func NewConfigHandler(cfg services.ConfigService) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GET /api/config
func (h *ConfigHandler) GetDocument(c *gin.Context) {
	doc, err := h.cfg.Snapshot(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "config_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"config": doc})
}

// PATCH /api/config
//
// Partial merge: omitted sections keep their current values. A rejected
// patch leaves the persisted document untouched.
func (h *ConfigHandler) PatchDocument(c *gin.Context) {
	var patch config.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_patch", err)
		return
	}
	doc, err := h.cfg.Patch(dbctx.Context{Ctx: c.Request.Context()}, patch)
	if err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "patch_rejected", err)
		return
	}
	RespondOK(c, gin.H{"config": doc})
}

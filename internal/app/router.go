package app

import (
	"github.com/gin-gonic/gin"

	"github.com/veloria/rapport-backend/internal/server"
)

func wireRouter(handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		SessionHandler:  handlers.Session,
		AnalysisHandler: handlers.Analysis,
		ReportHandler:   handlers.Report,
		ConfigHandler:   handlers.Config,
		JobsHandler:     handlers.Jobs,
		SSEHandler:      handlers.SSE,
	})
}

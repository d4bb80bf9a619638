package app

import (
	"github.com/veloria/rapport-backend/internal/handlers"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
	"github.com/veloria/rapport-backend/internal/sse"
)

type Handlers struct {
	Session  *handlers.SessionHandler
	Analysis *handlers.AnalysisHandler
	Report   *handlers.ReportHandler
	Config   *handlers.ConfigHandler
	Jobs     *handlers.JobsHandler
	SSE      *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Session:  handlers.NewSessionHandler(services.Sessions),
		Analysis: handlers.NewAnalysisHandler(services.Sessions, services.Jobs),
		Report:   handlers.NewReportHandler(services.Reports),
		Config:   handlers.NewConfigHandler(services.Config),
		Jobs:     handlers.NewJobsHandler(services.Jobs),
		SSE:      handlers.NewSSEHandler(log, sseHub),
	}
}

package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/veloria/rapport-backend/internal/handlers"
	"github.com/veloria/rapport-backend/internal/middleware"
)

type RouterConfig struct {
	SessionHandler  *handlers.SessionHandler
	AnalysisHandler *handlers.AnalysisHandler
	ReportHandler   *handlers.ReportHandler
	ConfigHandler   *handlers.ConfigHandler
	JobsHandler     *handlers.JobsHandler
	SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware("rapport-backend"))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// SSE
	router.GET("/sse/stream", cfg.SSEHandler.SSEStream)

	// ===============
	// || API       ||
	// ===============
	api := router.Group("/api")
	{
		// Sessions
		api.POST("/sessions", cfg.SessionHandler.Create)
		api.GET("/sessions", cfg.SessionHandler.List)
		api.GET("/sessions/:id", cfg.SessionHandler.Get)
		api.GET("/sessions/:id/messages", cfg.SessionHandler.ListMessages)
		api.POST("/sessions/:id/messages", cfg.SessionHandler.AppendMessage)
		api.POST("/sessions/:id/progress", cfg.SessionHandler.ReportProgress)
		api.POST("/sessions/:id/finalize", cfg.SessionHandler.Finalize)
		// Reports
		api.GET("/sessions/:id/report", cfg.ReportHandler.SessionReport)
		api.GET("/sessions/:id/gates", cfg.ReportHandler.ActiveGateCheck)
		api.GET("/users/:id/traits", cfg.ReportHandler.LongTermTraits)
		// Config
		api.GET("/config", cfg.ConfigHandler.GetDocument)
		api.PATCH("/config", cfg.ConfigHandler.PatchDocument)
		// Jobs
		api.GET("/jobs/latest", cfg.JobsHandler.GetLatestForEntity)
		api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
		api.POST("/jobs/:id/cancel", cfg.JobsHandler.Cancel)
	}

	// ===============
	// || Internal  ||
	// ===============
	internal := router.Group("/internal")
	{
		internal.POST("/analysis/messages", cfg.AnalysisHandler.EnqueueMessage)
		internal.POST("/analysis/sessions/:id/insights", cfg.AnalysisHandler.EnqueueInsights)
	}

	return router
}

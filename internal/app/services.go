package app

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/jobs/pipeline/message_analysis"
	"github.com/veloria/rapport-backend/internal/jobs/pipeline/session_insights"
	jobruntime "github.com/veloria/rapport-backend/internal/jobs/runtime"
	"github.com/veloria/rapport-backend/internal/jobs/worker"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
	"github.com/veloria/rapport-backend/internal/services"
	"github.com/veloria/rapport-backend/internal/sse"
)

type Services struct {
	Config   services.ConfigService
	Jobs     services.JobService
	Sessions services.SessionService
	Analysis services.AnalysisService
	Reports  services.ReportService

	JobNotifier      services.JobNotifier
	AnalysisNotifier services.AnalysisNotifier
	InsightsBuilder  services.InsightsBuilder

	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker

	// Nil when running without Redis; events then stay on the local hub.
	SSEBus services.SSEBus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, sseHub *sse.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	var bus services.SSEBus
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		redisBus, err := services.NewRedisSSEBus(log)
		if err != nil {
			return Services{}, err
		}
		bus = redisBus
		emitter = &services.RedisEmitter{Bus: redisBus}
	}

	jobNotifier := services.NewJobNotifier(emitter)
	analysisNotifier := services.NewAnalysisNotifier(emitter)

	configService := services.NewConfigService(db, log, repos.AppConfig, cfg.ConfigCacheTTL)
	jobService := services.NewJobService(db, log, repos.JobRun, jobNotifier)
	sessionService := services.NewSessionService(db, log, repos.Session, repos.Message, jobService, analysisNotifier)
	insightsBuilder := services.NewInsightsBuilder()

	analysisService := services.NewAnalysisService(
		db,
		log,
		repos.Session,
		repos.Message,
		repos.Hook,
		repos.HookTrigger,
		repos.GateOutcome,
		repos.TraitHistory,
		repos.TraitScore,
		repos.SessionInsight,
		configService,
		insightsBuilder,
		analysisNotifier,
		jobService,
	)

	reportService := services.NewReportService(
		db,
		log,
		repos.Session,
		repos.Message,
		repos.GateOutcome,
		repos.TraitHistory,
		repos.TraitScore,
		repos.SessionInsight,
		configService,
	)

	// Job registry
	jobRegistry := jobruntime.NewRegistry()
	if err := jobRegistry.Register(message_analysis.New(db, log, analysisService)); err != nil {
		return Services{}, err
	}
	if err := jobRegistry.Register(session_insights.New(db, log, analysisService)); err != nil {
		return Services{}, err
	}

	jobWorker := worker.NewWorker(db, log, repos.JobRun, jobRegistry, jobNotifier)

	return Services{
		Config:           configService,
		Jobs:             jobService,
		Sessions:         sessionService,
		Analysis:         analysisService,
		Reports:          reportService,
		JobNotifier:      jobNotifier,
		AnalysisNotifier: analysisNotifier,
		InsightsBuilder:  insightsBuilder,
		JobRegistry:      jobRegistry,
		JobWorker:        jobWorker,
		SSEBus:           bus,
	}, nil
}

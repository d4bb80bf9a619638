package app

import (
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type Repos struct {
	Session        repos.SessionRepo
	Message        repos.MessageRepo
	Hook           repos.HookRepo
	HookTrigger    repos.HookTriggerRepo
	GateOutcome    repos.GateOutcomeRepo
	TraitHistory   repos.TraitHistoryRepo
	TraitScore     repos.TraitScoreRepo
	SessionInsight repos.SessionInsightRepo
	AppConfig      repos.AppConfigRepo
	JobRun         repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Session:        repos.NewSessionRepo(db, log),
		Message:        repos.NewMessageRepo(db, log),
		Hook:           repos.NewHookRepo(db, log),
		HookTrigger:    repos.NewHookTriggerRepo(db, log),
		GateOutcome:    repos.NewGateOutcomeRepo(db, log),
		TraitHistory:   repos.NewTraitHistoryRepo(db, log),
		TraitScore:     repos.NewTraitScoreRepo(db, log),
		SessionInsight: repos.NewSessionInsightRepo(db, log),
		AppConfig:      repos.NewAppConfigRepo(db, log),
		JobRun:         repos.NewJobRunRepo(db, log),
	}
}

package repos

import (
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos/analysis"
	"github.com/veloria/rapport-backend/internal/data/repos/chat"
	"github.com/veloria/rapport-backend/internal/data/repos/config"
	"github.com/veloria/rapport-backend/internal/data/repos/jobs"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type SessionRepo = chat.SessionRepo
type MessageRepo = chat.MessageRepo

type HookRepo = analysis.HookRepo
type HookTriggerRepo = analysis.HookTriggerRepo
type GateOutcomeRepo = analysis.GateOutcomeRepo
type TraitHistoryRepo = analysis.TraitHistoryRepo
type TraitScoreRepo = analysis.TraitScoreRepo
type SessionInsightRepo = analysis.SessionInsightRepo

type AppConfigRepo = config.AppConfigRepo

type JobRunRepo = jobs.JobRunRepo

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return chat.NewSessionRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, baseLog)
}

func NewHookRepo(db *gorm.DB, baseLog *logger.Logger) HookRepo {
	return analysis.NewHookRepo(db, baseLog)
}
func NewHookTriggerRepo(db *gorm.DB, baseLog *logger.Logger) HookTriggerRepo {
	return analysis.NewHookTriggerRepo(db, baseLog)
}
func NewGateOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) GateOutcomeRepo {
	return analysis.NewGateOutcomeRepo(db, baseLog)
}
func NewTraitHistoryRepo(db *gorm.DB, baseLog *logger.Logger) TraitHistoryRepo {
	return analysis.NewTraitHistoryRepo(db, baseLog)
}
func NewTraitScoreRepo(db *gorm.DB, baseLog *logger.Logger) TraitScoreRepo {
	return analysis.NewTraitScoreRepo(db, baseLog)
}
func NewSessionInsightRepo(db *gorm.DB, baseLog *logger.Logger) SessionInsightRepo {
	return analysis.NewSessionInsightRepo(db, baseLog)
}

func NewAppConfigRepo(db *gorm.DB, baseLog *logger.Logger) AppConfigRepo {
	return config.NewAppConfigRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}

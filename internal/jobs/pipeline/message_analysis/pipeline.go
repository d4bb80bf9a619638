package message_analysis

import (
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/domain/jobs"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
	"github.com/veloria/rapport-backend/internal/services"
)

type Pipeline struct {
	db       *gorm.DB
	log      *logger.Logger
	analysis services.AnalysisService
}

func New(db *gorm.DB, baseLog *logger.Logger, analysis services.AnalysisService) *Pipeline {
	return &Pipeline{
		db:       db,
		log:      baseLog.With("job", jobs.TypeMessageAnalysis),
		analysis: analysis,
	}
}

func (p *Pipeline) Type() string { return jobs.TypeMessageAnalysis }

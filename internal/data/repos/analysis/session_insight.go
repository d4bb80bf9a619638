package analysis

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type SessionInsightRepo interface {
	Create(dbc dbctx.Context, insight *types.SessionInsight) error
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.SessionInsight, error)
}

type sessionInsightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionInsightRepo(db *gorm.DB, baseLog *logger.Logger) SessionInsightRepo {
	return &sessionInsightRepo{
		db:  db,
		log: baseLog.With("repo", "SessionInsightRepo"),
	}
}

// Create writes the insight row once per session. A concurrent duplicate run
// hits the unique session_id index and is dropped instead of failing the job.
func (r *sessionInsightRepo) Create(dbc dbctx.Context, insight *types.SessionInsight) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(insight).Error
}

func (r *sessionInsightRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.SessionInsight, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.SessionInsight
	err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

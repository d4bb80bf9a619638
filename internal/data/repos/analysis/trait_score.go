package analysis

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type TraitScoreRepo interface {
	GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.TraitLongTermScore, error)
	Upsert(dbc dbctx.Context, score *types.TraitLongTermScore) error
}

type traitScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTraitScoreRepo(db *gorm.DB, baseLog *logger.Logger) TraitScoreRepo {
	return &traitScoreRepo{
		db:  db,
		log: baseLog.With("repo", "TraitScoreRepo"),
	}
}

func (r *traitScoreRepo) GetByUser(dbc dbctx.Context, userID uuid.UUID) (*types.TraitLongTermScore, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.TraitLongTermScore
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *traitScoreRepo) Upsert(dbc dbctx.Context, score *types.TraitLongTermScore) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"traits", "sessions_count", "updated_at",
			}),
		}).
		Create(score).Error
}

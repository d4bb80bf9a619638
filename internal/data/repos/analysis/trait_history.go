package analysis

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type TraitHistoryRepo interface {
	Upsert(dbc dbctx.Context, history *types.TraitHistory) error
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.TraitHistory, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]types.TraitHistory, error)
}

type traitHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTraitHistoryRepo(db *gorm.DB, baseLog *logger.Logger) TraitHistoryRepo {
	return &traitHistoryRepo{
		db:  db,
		log: baseLog.With("repo", "TraitHistoryRepo"),
	}
}

func (r *traitHistoryRepo) Upsert(dbc dbctx.Context, history *types.TraitHistory) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"traits", "deltas", "session_score", "message_avg_score", "updated_at",
			}),
		}).
		Create(history).Error
}

func (r *traitHistoryRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.TraitHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.TraitHistory
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

func (r *traitHistoryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]types.TraitHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []types.TraitHistory
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

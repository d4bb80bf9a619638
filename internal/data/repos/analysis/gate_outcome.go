package analysis

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type GateOutcomeRepo interface {
	UpsertOutcomes(dbc dbctx.Context, outcomes []*types.GateOutcome) error
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]types.GateOutcome, error)
}

type gateOutcomeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGateOutcomeRepo(db *gorm.DB, baseLog *logger.Logger) GateOutcomeRepo {
	return &gateOutcomeRepo{
		db:  db,
		log: baseLog.With("repo", "GateOutcomeRepo"),
	}
}

// UpsertOutcomes writes gate results keyed by (session_id, gate_key),
// replacing any earlier evaluation of the same gate.
func (r *gateOutcomeRepo) UpsertOutcomes(dbc dbctx.Context, outcomes []*types.GateOutcome) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(outcomes) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "gate_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"passed", "reason_code", "context", "updated_at",
			}),
		}).
		Create(&outcomes).Error
}

func (r *gateOutcomeRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]types.GateOutcome, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.GateOutcome
	err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("gate_key ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

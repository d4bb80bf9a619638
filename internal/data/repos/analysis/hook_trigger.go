package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type HookTriggerRepo interface {
	Create(dbc dbctx.Context, triggers []*types.HookTrigger) ([]*types.HookTrigger, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]types.HookTrigger, error)
	LatestBySession(dbc dbctx.Context, sessionID uuid.UUID) (map[uuid.UUID]time.Time, error)
}

type hookTriggerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHookTriggerRepo(db *gorm.DB, baseLog *logger.Logger) HookTriggerRepo {
	return &hookTriggerRepo{
		db:  db,
		log: baseLog.With("repo", "HookTriggerRepo"),
	}
}

func (r *hookTriggerRepo) Create(dbc dbctx.Context, triggers []*types.HookTrigger) ([]*types.HookTrigger, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(triggers) == 0 {
		return []*types.HookTrigger{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&triggers).Error; err != nil {
		return nil, err
	}
	return triggers, nil
}

func (r *hookTriggerRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]types.HookTrigger, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.HookTrigger
	err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("fired_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LatestBySession returns the most recent firing time per hook for a session.
func (r *hookTriggerRepo) LatestBySession(dbc dbctx.Context, sessionID uuid.UUID) (map[uuid.UUID]time.Time, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		HookID  uuid.UUID
		FiredAt time.Time
	}
	var rows []row
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.HookTrigger{}).
		Select("hook_id, MAX(fired_at) AS fired_at").
		Where("session_id = ?", sessionID).
		Group("hook_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(rows))
	for _, rw := range rows {
		out[rw.HookID] = rw.FiredAt
	}
	return out, nil
}

package analysis

import (
	"gorm.io/gorm"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type HookRepo interface {
	Create(dbc dbctx.Context, hooks []*types.Hook) ([]*types.Hook, error)
	ListEnabled(dbc dbctx.Context) ([]types.Hook, error)
	Count(dbc dbctx.Context) (int64, error)
}

type hookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHookRepo(db *gorm.DB, baseLog *logger.Logger) HookRepo {
	return &hookRepo{
		db:  db,
		log: baseLog.With("repo", "HookRepo"),
	}
}

func (r *hookRepo) Create(dbc dbctx.Context, hooks []*types.Hook) ([]*types.Hook, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(hooks) == 0 {
		return []*types.Hook{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&hooks).Error; err != nil {
		return nil, err
	}
	return hooks, nil
}

func (r *hookRepo) ListEnabled(dbc dbctx.Context) ([]types.Hook, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.Hook
	err := transaction.WithContext(dbc.Ctx).
		Where("is_enabled = ?", true).
		Order("priority DESC, code ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *hookRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).Model(&types.Hook{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

package config

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type AppConfigRepo interface {
	GetByCode(dbc dbctx.Context, code string) (*types.AppConfig, error)
	Upsert(dbc dbctx.Context, cfg *types.AppConfig) error
}

type appConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppConfigRepo(db *gorm.DB, baseLog *logger.Logger) AppConfigRepo {
	return &appConfigRepo{
		db:  db,
		log: baseLog.With("repo", "AppConfigRepo"),
	}
}

func (r *appConfigRepo) GetByCode(dbc dbctx.Context, code string) (*types.AppConfig, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.AppConfig
	err := transaction.WithContext(dbc.Ctx).
		Where("code = ?", code).
		First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *appConfigRepo) Upsert(dbc dbctx.Context, cfg *types.AppConfig) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"version", "scoring", "dynamics", "gates", "mood", "updated_at",
			}),
		}).
		Create(cfg).Error
}

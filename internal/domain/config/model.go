package config

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const DefaultDocumentCode = "default"

// AppConfig is the persisted form of the configuration document: one row per
// code (in practice just "default"), sections stored as typed jsonb.
type AppConfig struct {
	ID        uuid.UUID                           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code      string                              `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Version   int                                 `gorm:"column:version;not null;default:1" json:"version"`
	Scoring   datatypes.JSONType[ScoringConfig]   `gorm:"column:scoring;type:jsonb" json:"scoring"`
	Dynamics  datatypes.JSONType[DynamicsConfig]  `gorm:"column:dynamics;type:jsonb" json:"dynamics"`
	Gates     datatypes.JSONType[GateConfig]      `gorm:"column:gates;type:jsonb" json:"gates"`
	Mood      datatypes.JSONType[MoodConfig]      `gorm:"column:mood;type:jsonb" json:"mood"`
	CreatedAt time.Time                           `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time                           `gorm:"not null;default:now()" json:"updated_at"`
}

func (AppConfig) TableName() string { return "app_config" }

func (a *AppConfig) Document() Document {
	return Document{
		Version:  a.Version,
		Scoring:  a.Scoring.Data(),
		Dynamics: a.Dynamics.Data(),
		Gates:    a.Gates.Data(),
		Mood:     a.Mood.Data(),
	}
}

func FromDocument(code string, d Document) *AppConfig {
	return &AppConfig{
		Code:     code,
		Version:  d.Version,
		Scoring:  datatypes.NewJSONType(d.Scoring),
		Dynamics: datatypes.NewJSONType(d.Dynamics),
		Gates:    datatypes.NewJSONType(d.Gates),
		Mood:     datatypes.NewJSONType(d.Mood),
	}
}

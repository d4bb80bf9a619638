package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TraitHistory is the per-session rollup: the session trait snapshot, its
// delta against the long-term score as it stood before this session folded
// in, and the session's score aggregates. Upserted by session ID.
type TraitHistory struct {
	ID              uuid.UUID                        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID       uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	UserID          uuid.UUID                        `gorm:"type:uuid;not null;index" json:"user_id"`
	Traits          datatypes.JSONType[TraitVector]  `gorm:"column:traits;type:jsonb" json:"traits"`
	Deltas          datatypes.JSONType[TraitVector]  `gorm:"column:deltas;type:jsonb" json:"deltas"`
	SessionScore    float64                          `gorm:"column:session_score;not null;default:0" json:"session_score"`
	MessageAvgScore float64                          `gorm:"column:message_avg_score;not null;default:0" json:"message_avg_score"`
	CreatedAt       time.Time                        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time                        `gorm:"not null;default:now()" json:"updated_at"`
}

func (TraitHistory) TableName() string { return "trait_history" }

// TraitLongTermScore is the one-row-per-user EMA state over all six traits.
type TraitLongTermScore struct {
	ID            uuid.UUID                        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Traits        datatypes.JSONType[TraitVector]  `gorm:"column:traits;type:jsonb" json:"traits"`
	SessionsCount int                              `gorm:"column:sessions_count;not null;default:0" json:"sessions_count"`
	CreatedAt     time.Time                        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time                        `gorm:"not null;default:now()" json:"updated_at"`
}

func (TraitLongTermScore) TableName() string { return "trait_long_term_score" }

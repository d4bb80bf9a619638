package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
)

const (
	RoleUser   = "USER"
	RoleAI     = "AI"
	RoleSystem = "SYSTEM"
)

// Message is immutable once created by the chat transport, ordered by
// TurnIndex within its session. The analysis fields (score, label, flags,
// traits, fired hooks, mood-after) are written exactly once by the
// message-analysis job for a given turn index; AnalyzedAt marks that write.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_message_session_turn,unique,priority:1" json:"session_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	TurnIndex int `gorm:"column:turn_index;not null;index:idx_message_session_turn,unique,priority:2" json:"turn_index"`

	Role    string `gorm:"column:role;not null;index" json:"role"`
	Content string `gorm:"column:content;type:text;not null;default:''" json:"content"`

	Score      *float64                                 `gorm:"column:score" json:"score,omitempty"`
	Label      string                                   `gorm:"column:label;not null;default:''" json:"label,omitempty"`
	Flags      datatypes.JSONType[[]string]             `gorm:"column:flags;type:jsonb" json:"flags,omitempty"`
	Traits     datatypes.JSONType[analysis.TraitVector] `gorm:"column:traits;type:jsonb" json:"traits,omitempty"`
	FiredHooks datatypes.JSONType[[]string]             `gorm:"column:fired_hooks;type:jsonb" json:"fired_hooks,omitempty"`
	MoodAfter  string                                   `gorm:"column:mood_after;not null;default:''" json:"mood_after,omitempty"`
	AnalyzedAt *time.Time                               `gorm:"column:analyzed_at" json:"analyzed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Message) TableName() string { return "message" }

// HasValidScore reports whether the message carries an analyzed score in the
// valid 0-100 range. Gate and trait aggregation only count these.
func (m *Message) HasValidScore() bool {
	return m.AnalyzedAt != nil && m.Score != nil && *m.Score >= 0 && *m.Score <= 100
}

package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comparison operators allowed in a hook trait requirement.
const (
	OpGTE = "gte"
	OpLTE = "lte"
)

type TraitRequirement struct {
	Trait string  `json:"trait"`
	Op    string  `json:"op"`
	Value float64 `json:"value"`
}

// HookCondition matches against a message's trait snapshot and semantic
// flags. All required traits and all required flags must hold.
type HookCondition struct {
	RequiredTraits []TraitRequirement `json:"required_traits,omitempty"`
	RequiredFlags  []string           `json:"required_flags,omitempty"`
}

// Hook is a configured rule that fires when a scored message matches its
// condition, subject to a per-session cooldown. Firings feed the evidence
// accumulator via EvidenceCluster/EvidenceWeight.
type Hook struct {
	ID              uuid.UUID                          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code            string                             `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Title           string                             `gorm:"column:title;not null;default:''" json:"title"`
	IsEnabled       bool                               `gorm:"column:is_enabled;not null;default:true;index" json:"is_enabled"`
	Priority        int                                `gorm:"column:priority;not null;default:0;index" json:"priority"`
	CooldownSeconds int                                `gorm:"column:cooldown_seconds;not null;default:0" json:"cooldown_seconds"`
	Condition       datatypes.JSONType[HookCondition]  `gorm:"column:condition;type:jsonb" json:"condition"`
	EvidenceCluster string                             `gorm:"column:evidence_cluster;not null;default:'default'" json:"evidence_cluster"`
	EvidenceWeight  float64                            `gorm:"column:evidence_weight;not null;default:1" json:"evidence_weight"`
	CreatedAt       time.Time                          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time                          `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt                     `gorm:"index" json:"deleted_at,omitempty"`
}

func (Hook) TableName() string { return "hook" }

// HookTrigger is the append-only firing record. The most recent row per
// (hook, session) enforces cooldown; the full set is the audit trail that
// lets evidence history be reconstructed.
type HookTrigger struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	HookID    uuid.UUID `gorm:"type:uuid;not null;index:idx_hook_trigger_hook_session,priority:1" json:"hook_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_hook_trigger_hook_session,priority:2;index" json:"session_id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	TurnIndex int       `gorm:"column:turn_index;not null" json:"turn_index"`
	FiredAt   time.Time `gorm:"column:fired_at;not null;default:now();index" json:"fired_at"`
}

func (HookTrigger) TableName() string { return "hook_trigger" }

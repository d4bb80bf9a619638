package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Universal session gate keys.
const (
	GateMinMessages       = "GATE_MIN_MESSAGES"
	GateSuccessThreshold  = "GATE_SUCCESS_THRESHOLD"
	GateFailFloor         = "GATE_FAIL_FLOOR"
	GateDisqualified      = "GATE_DISQUALIFIED"
	GateObjectiveProgress = "GATE_OBJECTIVE_PROGRESS"
)

// Stable reason codes; the presentation layer renders these without guessing.
const (
	ReasonInsufficientMessages  = "INSUFFICIENT_MESSAGES"
	ReasonNoScoresAvailable     = "NO_SCORES_AVAILABLE"
	ReasonBelowSuccessThreshold = "BELOW_SUCCESS_THRESHOLD"
	ReasonAtOrBelowFailFloor    = "AT_OR_BELOW_FAIL_FLOOR"
	ReasonDisqualifyingEnd      = "DISQUALIFYING_END_REASON"
	ReasonNoProgressData        = "NO_PROGRESS_DATA"
	ReasonProgressBelowTarget   = "PROGRESS_BELOW_TARGET"
)

// GateContext carries the numbers behind a gate decision for display and
// debugging. Fields absent from a given gate stay nil/empty.
type GateContext struct {
	Observed  *float64 `json:"observed,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// GateOutcome is one row per (session, gate key). The unique index is the
// idempotency boundary: evaluating a session twice upserts, never duplicates.
type GateOutcome struct {
	ID         uuid.UUID                        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID  uuid.UUID                        `gorm:"type:uuid;not null;index:idx_gate_outcome_session_key,unique,priority:1" json:"session_id"`
	GateKey    string                           `gorm:"column:gate_key;not null;index:idx_gate_outcome_session_key,unique,priority:2" json:"gate_key"`
	Passed     bool                             `gorm:"column:passed;not null" json:"passed"`
	ReasonCode string                           `gorm:"column:reason_code;not null;default:''" json:"reason_code"`
	Context    datatypes.JSONType[GateContext]  `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt  time.Time                        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time                        `gorm:"not null;default:now()" json:"updated_at"`
}

func (GateOutcome) TableName() string { return "gate_outcome" }

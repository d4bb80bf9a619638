package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InsightPayload is the stable end-of-session product handed to the
// presentation layer. The shape is versioned via SchemaVersion so consumers
// can migrate explicitly when it changes.
type InsightPayload struct {
	SchemaVersion  int          `json:"schema_version"`
	Headline       string       `json:"headline"`
	Outcome        string       `json:"outcome"`
	Strengths      []string     `json:"strengths"`
	GrowthAreas    []string     `json:"growth_areas"`
	MoodTrajectory []string     `json:"mood_trajectory"`
	GateSummary    []GateDigest `json:"gate_summary"`
	SessionScore   float64      `json:"session_score"`
	TraitDeltas    TraitVector  `json:"trait_deltas"`
}

const InsightSchemaVersion = 1

type GateDigest struct {
	GateKey    string `json:"gate_key"`
	Passed     bool   `json:"passed"`
	ReasonCode string `json:"reason_code,omitempty"`
}

// SessionInsight is one row per finalized session. Its existence is the
// lane-B idempotency guard: re-delivered insight jobs skip when a row exists.
type SessionInsight struct {
	ID        uuid.UUID                           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID                           `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	UserID    uuid.UUID                           `gorm:"type:uuid;not null;index" json:"user_id"`
	Payload   datatypes.JSONType[InsightPayload]  `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt time.Time                           `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time                           `gorm:"not null;default:now()" json:"updated_at"`
}

func (SessionInsight) TableName() string { return "session_insight" }

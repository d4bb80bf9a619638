package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
)

// Session statuses. A session is terminal (archived, read-only for the
// pipeline) in every status except in_progress.
const (
	SessionInProgress   = "in_progress"
	SessionSuccess      = "success"
	SessionFail         = "fail"
	SessionDisqualified = "disqualified"
	SessionAborted      = "aborted"
)

// End-reason codes that disqualify a session outright.
const (
	EndReasonDisqualified = "DISQUALIFIED"
	EndReasonViolation    = "VIOLATION"
	EndReasonAbuse        = "ABUSE"
)

func IsTerminalStatus(status string) bool {
	switch status {
	case SessionSuccess, SessionFail, SessionDisqualified, SessionAborted:
		return true
	}
	return false
}

// SessionPayload is the typed extension record for a session. Mission
// progress is reported by the mission runner as a 0-100 percentage; nil means
// no progress data was ever reported.
type SessionPayload struct {
	Scenario    string   `json:"scenario,omitempty"`
	MissionCode string   `json:"mission_code,omitempty"`
	ProgressPct *float64 `json:"progress_pct,omitempty"`
}

// Session is the mutable per-conversation aggregate. The evidence map and
// current mood state are read-modify-write state owned by the analysis
// pipeline, which is why lane-A jobs for one session must be single-flight.
type Session struct {
	ID        uuid.UUID                                 `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID                                 `gorm:"type:uuid;not null;index" json:"user_id"`
	Status    string                                    `gorm:"column:status;not null;default:'in_progress';index" json:"status"`
	MoodState string                                    `gorm:"column:mood_state;not null;default:'NEUTRAL'" json:"mood_state"`
	Evidence  datatypes.JSONType[analysis.EvidenceMap]  `gorm:"column:evidence;type:jsonb" json:"evidence"`
	EndReason string                                    `gorm:"column:end_reason;not null;default:''" json:"end_reason,omitempty"`
	Payload   datatypes.JSONType[SessionPayload]        `gorm:"column:payload;type:jsonb" json:"payload"`
	EndedAt   *time.Time                                `gorm:"column:ended_at" json:"ended_at,omitempty"`
	CreatedAt time.Time                                 `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time                                 `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt                            `gorm:"index" json:"deleted_at,omitempty"`
}

func (Session) TableName() string { return "session" }

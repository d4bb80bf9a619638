package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/jobs"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	EnqueueMessageAnalysis(dbc dbctx.Context, ownerUserID uuid.UUID, sessionID uuid.UUID, messageID uuid.UUID, turnIndex int) (*types.JobRun, error)
	EnqueueSessionInsights(dbc dbctx.Context, ownerUserID uuid.UUID, sessionID uuid.UUID) (*types.JobRun, bool, error)
	GetByIDForUser(dbc dbctx.Context, ownerUserID uuid.UUID, jobID uuid.UUID) (*types.JobRun, error)
	GetLatestForEntity(dbc dbctx.Context, ownerUserID uuid.UUID, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error)
	Cancel(dbc dbctx.Context, ownerUserID uuid.UUID, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id")
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	job := newJobRun(ownerUserID, jobType, entityType, entityID, payload)
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.notify.JobCreated(ownerUserID, job)
	return job, nil
}

// EnqueueMessageAnalysis queues the per-turn analysis job. All jobs of one
// session share a sequence key, with the turn index as the ordinal, so the
// worker claim query executes them single-flight in turn order no matter how
// many workers poll.
func (s *jobService) EnqueueMessageAnalysis(dbc dbctx.Context, ownerUserID uuid.UUID, sessionID uuid.UUID, messageID uuid.UUID, turnIndex int) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil || sessionID == uuid.Nil || messageID == uuid.Nil {
		return nil, fmt.Errorf("missing ids for message analysis job")
	}
	if turnIndex < 0 {
		return nil, fmt.Errorf("negative turn_index %d", turnIndex)
	}
	job := newJobRun(ownerUserID, jobs.TypeMessageAnalysis, "session", &sessionID, map[string]any{
		"session_id": sessionID.String(),
		"message_id": messageID.String(),
		"turn_index": turnIndex,
	})
	job.SequenceKey = SessionSequenceKey(sessionID)
	job.SequenceIdx = turnIndex
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create message analysis job: %w", err)
	}
	s.notify.JobCreated(ownerUserID, job)
	return job, nil
}

// EnqueueSessionInsights queues the end-of-session job under a deterministic
// ID derived from the session, so repeated finalize calls collapse into one
// run. The bool reports whether this call inserted the job.
func (s *jobService) EnqueueSessionInsights(dbc dbctx.Context, ownerUserID uuid.UUID, sessionID uuid.UUID) (*types.JobRun, bool, error) {
	if ownerUserID == uuid.Nil || sessionID == uuid.Nil {
		return nil, false, fmt.Errorf("missing ids for session insights job")
	}
	job := newJobRun(ownerUserID, jobs.TypeSessionInsights, "session", &sessionID, map[string]any{
		"session_id": sessionID.String(),
	})
	job.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("session_insights:"+sessionID.String()))
	inserted, err := s.repo.CreateDedup(dbc, job)
	if err != nil {
		return nil, false, fmt.Errorf("create session insights job: %w", err)
	}
	if inserted {
		s.notify.JobCreated(ownerUserID, job)
	}
	return job, inserted, nil
}

func (s *jobService) GetByIDForUser(dbc dbctx.Context, ownerUserID uuid.UUID, jobID uuid.UUID) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil || jobID == uuid.Nil {
		return nil, nil
	}
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{jobID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OwnerUserID != ownerUserID {
		return nil, nil
	}
	return rows[0], nil
}

func (s *jobService) GetLatestForEntity(dbc dbctx.Context, ownerUserID uuid.UUID, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error) {
	return s.repo.GetLatestByEntity(dbc, ownerUserID, entityType, entityID, jobType)
}

func (s *jobService) Cancel(dbc dbctx.Context, ownerUserID uuid.UUID, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.GetByIDForUser(dbc, ownerUserID, jobID)
	if err != nil || job == nil {
		return nil, err
	}
	switch job.Status {
	case jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCanceled:
		return job, nil
	}
	now := time.Now()
	updated, err := s.repo.UpdateFieldsUnlessStatus(dbc, job.ID, []string{jobs.StatusSucceeded, jobs.StatusCanceled}, map[string]interface{}{
		"status":     jobs.StatusCanceled,
		"stage":      "canceled",
		"message":    "",
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}
	if updated {
		job.Status = jobs.StatusCanceled
		job.Stage = "canceled"
		job.UpdatedAt = now
	}
	return job, nil
}

// SessionSequenceKey is the dispatch partition shared by every lane-A job of
// one session.
func SessionSequenceKey(sessionID uuid.UUID) string {
	return "session:" + sessionID.String()
}

func newJobRun(ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) *types.JobRun {
	if payload == nil {
		payload = map[string]any{}
	}
	b, _ := json.Marshal(payload)
	now := time.Now()
	return &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      jobs.StatusQueued,
		Stage:       "queued",
		Progress:    0,
		Attempts:    0,
		Message:     "Queued",
		Payload:     datatypes.JSON(b),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

var (
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrSessionEnded    = fmt.Errorf("session already ended")
	ErrInvalidRole     = fmt.Errorf("invalid message role")
)

// SessionService is the chat-facing surface: session lifecycle, message
// intake, and the enqueue side of both analysis lanes.
type SessionService interface {
	Create(dbc dbctx.Context, userID uuid.UUID, payload chat.SessionPayload) (*types.Session, error)
	Get(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.Session, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Session, error)
	ListMessages(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) ([]*types.Message, error)
	AppendMessage(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, role string, content string) (*types.Message, *types.JobRun, error)
	EnqueueAnalysisByTurn(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, turnIndex int) (*types.JobRun, error)
	ReportProgress(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, pct float64) error
	Finalize(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, endReason string) (*types.Session, *types.JobRun, error)
}

type sessionService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions repos.SessionRepo
	messages repos.MessageRepo
	jobs     JobService
	notify   AnalysisNotifier
}

func NewSessionService(db *gorm.DB, baseLog *logger.Logger, sessions repos.SessionRepo, messages repos.MessageRepo, jobService JobService, notify AnalysisNotifier) SessionService {
	return &sessionService{
		db:       db,
		log:      baseLog.With("service", "SessionService"),
		sessions: sessions,
		messages: messages,
		jobs:     jobService,
		notify:   notify,
	}
}

func (s *sessionService) Create(dbc dbctx.Context, userID uuid.UUID, payload chat.SessionPayload) (*types.Session, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	session := &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    chat.SessionInProgress,
		MoodState: analysis.MoodNeutral,
		Evidence:  datatypes.NewJSONType(analysis.EvidenceMap{}),
		Payload:   datatypes.NewJSONType(payload),
	}
	if _, err := s.sessions.Create(dbc, []*types.Session{session}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *sessionService) Get(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.Session, error) {
	return s.ownedSession(dbc, userID, sessionID)
}

func (s *sessionService) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Session, error) {
	return s.sessions.ListByUser(dbc, userID, limit)
}

func (s *sessionService) ListMessages(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) ([]*types.Message, error) {
	if _, err := s.ownedSession(dbc, userID, sessionID); err != nil {
		return nil, err
	}
	return s.messages.ListBySessionUpTo(dbc, sessionID, -1)
}

// AppendMessage stores the next turn and, for USER messages, queues its
// analysis job in the session's dispatch partition. AI and SYSTEM turns are
// recorded but never scored.
func (s *sessionService) AppendMessage(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, role string, content string) (*types.Message, *types.JobRun, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	switch role {
	case chat.RoleUser, chat.RoleAI, chat.RoleSystem:
	default:
		return nil, nil, ErrInvalidRole
	}

	session, err := s.ownedSession(dbc, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.EndedAt != nil {
		return nil, nil, ErrSessionEnded
	}

	var msg *types.Message
	var job *types.JobRun
	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	err = transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: txx}
		turnIndex, err := s.messages.NextTurnIndex(txc, sessionID)
		if err != nil {
			return fmt.Errorf("next turn index: %w", err)
		}
		msg = &types.Message{
			ID:        uuid.New(),
			SessionID: sessionID,
			UserID:    userID,
			TurnIndex: turnIndex,
			Role:      role,
			Content:   content,
		}
		if _, err := s.messages.Create(txc, []*types.Message{msg}); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		if role == chat.RoleUser {
			job, err = s.jobs.EnqueueMessageAnalysis(txc, userID, sessionID, msg.ID, turnIndex)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return msg, job, nil
}

// EnqueueAnalysisByTurn re-queues analysis for a stored message addressed by
// its turn index. Used by the transport-facing enqueue endpoint, where the
// caller knows the turn but not the message row id.
func (s *sessionService) EnqueueAnalysisByTurn(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, turnIndex int) (*types.JobRun, error) {
	if _, err := s.ownedSession(dbc, userID, sessionID); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByTurn(dbc, sessionID, turnIndex)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("no message at turn %d", turnIndex)
	}
	return s.jobs.EnqueueMessageAnalysis(dbc, userID, sessionID, msg.ID, turnIndex)
}

func (s *sessionService) ReportProgress(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("progress_pct must be in [0,100], got %v", pct)
	}
	session, err := s.ownedSession(dbc, userID, sessionID)
	if err != nil {
		return err
	}
	if session.EndedAt != nil {
		return ErrSessionEnded
	}
	payload := session.Payload.Data()
	payload.ProgressPct = &pct
	return s.sessions.UpdateFields(dbc, sessionID, map[string]interface{}{
		"payload": datatypes.NewJSONType(payload),
	})
}

// Finalize marks the session ended and queues the insights rollup. The final
// success/fail/disqualified status is assigned by the rollup job after gate
// evaluation; finalize only closes intake.
func (s *sessionService) Finalize(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID, endReason string) (*types.Session, *types.JobRun, error) {
	session, err := s.ownedSession(dbc, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.EndedAt != nil {
		return session, nil, ErrSessionEnded
	}

	now := time.Now()
	endReason = strings.ToUpper(strings.TrimSpace(endReason))
	if err := s.sessions.UpdateFields(dbc, sessionID, map[string]interface{}{
		"end_reason": endReason,
		"ended_at":   now,
	}); err != nil {
		return nil, nil, fmt.Errorf("finalize session: %w", err)
	}
	session.EndReason = endReason
	session.EndedAt = &now

	if s.notify != nil {
		s.notify.SessionFinalized(userID, session)
	}

	job, _, err := s.jobs.EnqueueSessionInsights(dbc, userID, sessionID)
	if err != nil {
		return session, nil, err
	}
	return session, job, nil
}

func (s *sessionService) ownedSession(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.Session, error) {
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

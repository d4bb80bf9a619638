package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/engine"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

// SessionReport bundles everything the client renders on the session detail
// screen.
type SessionReport struct {
	Session      *types.Session        `json:"session"`
	Messages     []*types.Message      `json:"messages"`
	GateOutcomes []types.GateOutcome   `json:"gate_outcomes"`
	TraitHistory *types.TraitHistory   `json:"trait_history,omitempty"`
	Insight      *types.SessionInsight `json:"insight,omitempty"`
}

// ReportService serves read-side aggregations: full session reports, live
// mid-session gate checks, and the user's long-term trait state.
type ReportService interface {
	SessionReport(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) (*SessionReport, error)
	ActiveGateCheck(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) ([]engine.GateResult, error)
	LongTermTraits(dbc dbctx.Context, userID uuid.UUID, historyLimit int) (*types.TraitLongTermScore, []types.TraitHistory, error)
}

type reportService struct {
	db  *gorm.DB
	log *logger.Logger

	sessions repos.SessionRepo
	messages repos.MessageRepo
	gates    repos.GateOutcomeRepo
	history  repos.TraitHistoryRepo
	longTerm repos.TraitScoreRepo
	insights repos.SessionInsightRepo
	cfg      ConfigService
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions repos.SessionRepo,
	messages repos.MessageRepo,
	gates repos.GateOutcomeRepo,
	history repos.TraitHistoryRepo,
	longTerm repos.TraitScoreRepo,
	insights repos.SessionInsightRepo,
	cfg ConfigService,
) ReportService {
	return &reportService{
		db:       db,
		log:      baseLog.With("service", "ReportService"),
		sessions: sessions,
		messages: messages,
		gates:    gates,
		history:  history,
		longTerm: longTerm,
		insights: insights,
		cfg:      cfg,
	}
}

func (s *reportService) SessionReport(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) (*SessionReport, error) {
	session, err := s.ownedSession(dbc, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListBySessionUpTo(dbc, sessionID, -1)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	gates, err := s.gates.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load gate outcomes: %w", err)
	}
	history, err := s.history.GetBySession(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load trait history: %w", err)
	}
	insight, err := s.insights.GetBySession(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load insight: %w", err)
	}
	return &SessionReport{
		Session:      session,
		Messages:     messages,
		GateOutcomes: gates,
		TraitHistory: history,
		Insight:      insight,
	}, nil
}

// ActiveGateCheck evaluates the gates against the session as it stands right
// now, without persisting anything. Used for mid-mission "am I on track"
// queries; the stored outcomes are written only by the end-of-session job.
func (s *reportService) ActiveGateCheck(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) ([]engine.GateResult, error) {
	session, err := s.ownedSession(dbc, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListBySessionUpTo(dbc, sessionID, -1)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	doc, err := s.cfg.Snapshot(dbc.Ctx)
	if err != nil {
		return nil, fmt.Errorf("config snapshot: %w", err)
	}
	return engine.EvaluateGates(sessionStats(session, messages), doc.Gates), nil
}

func (s *reportService) LongTermTraits(dbc dbctx.Context, userID uuid.UUID, historyLimit int) (*types.TraitLongTermScore, []types.TraitHistory, error) {
	score, err := s.longTerm.GetByUser(dbc, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load long-term traits: %w", err)
	}
	history, err := s.history.ListByUser(dbc, userID, historyLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load trait history: %w", err)
	}
	return score, history, nil
}

func (s *reportService) ownedSession(dbc dbctx.Context, userID uuid.UUID, sessionID uuid.UUID) (*types.Session, error) {
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

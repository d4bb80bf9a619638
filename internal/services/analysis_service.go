package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
	"github.com/veloria/rapport-backend/internal/domain/config"
	"github.com/veloria/rapport-backend/internal/engine"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

// AnalyzeOutcome reports what the per-message job actually did. Skipped runs
// are successes from the queue's point of view; retrying them cannot help.
type AnalyzeOutcome struct {
	Skipped    bool
	SkipReason string
	Message    *types.Message
	MoodBefore string
	MoodAfter  string
	FiredHooks []string
}

// InsightsOutcome is the lane-B analog.
type InsightsOutcome struct {
	Skipped     bool
	SkipReason  string
	FinalStatus string
	Insight     *types.SessionInsight
}

// AnalysisService owns both analysis jobs: the per-message scoring chain and
// the end-of-session rollup. All engine calls are pure; this service does the
// loading, the transaction, and the notifications around them.
type AnalysisService interface {
	AnalyzeMessage(dbc dbctx.Context, sessionID uuid.UUID, messageID uuid.UUID, turnIndex int) (*AnalyzeOutcome, error)
	BuildSessionInsights(dbc dbctx.Context, sessionID uuid.UUID) (*InsightsOutcome, error)
}

type analysisService struct {
	db  *gorm.DB
	log *logger.Logger

	sessions repos.SessionRepo
	messages repos.MessageRepo
	hooks    repos.HookRepo
	triggers repos.HookTriggerRepo
	gates    repos.GateOutcomeRepo
	history  repos.TraitHistoryRepo
	longTerm repos.TraitScoreRepo
	insights repos.SessionInsightRepo

	cfg      ConfigService
	builder  InsightsBuilder
	notify   AnalysisNotifier
	jobs     JobService
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions repos.SessionRepo,
	messages repos.MessageRepo,
	hooks repos.HookRepo,
	triggers repos.HookTriggerRepo,
	gates repos.GateOutcomeRepo,
	history repos.TraitHistoryRepo,
	longTerm repos.TraitScoreRepo,
	insights repos.SessionInsightRepo,
	cfg ConfigService,
	builder InsightsBuilder,
	notify AnalysisNotifier,
	jobService JobService,
) AnalysisService {
	return &analysisService{
		db:       db,
		log:      baseLog.With("service", "AnalysisService"),
		sessions: sessions,
		messages: messages,
		hooks:    hooks,
		triggers: triggers,
		gates:    gates,
		history:  history,
		longTerm: longTerm,
		insights: insights,
		cfg:      cfg,
		builder:  builder,
		notify:   notify,
		jobs:     jobService,
	}
}

// AnalyzeMessage runs the full per-message chain: score, hooks, evidence,
// mood, persist. The config document is snapshotted once up front; a patch
// landing mid-run does not mix versions within one message.
//
// A missing session or message is a skip, not an error: the row was deleted
// after enqueue and retrying cannot bring it back.
func (s *analysisService) AnalyzeMessage(dbc dbctx.Context, sessionID uuid.UUID, messageID uuid.UUID, turnIndex int) (*AnalyzeOutcome, error) {
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		s.log.Warn("Session gone before analysis; skipping", "session_id", sessionID)
		return &AnalyzeOutcome{Skipped: true, SkipReason: "session_not_found"}, nil
	}

	msg, err := s.messages.GetByTurn(dbc, sessionID, turnIndex)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg == nil || msg.ID != messageID {
		s.log.Warn("Message gone before analysis; skipping", "session_id", sessionID, "turn_index", turnIndex)
		return &AnalyzeOutcome{Skipped: true, SkipReason: "message_not_found"}, nil
	}
	if msg.AnalyzedAt != nil {
		return &AnalyzeOutcome{Skipped: true, SkipReason: "already_analyzed", Message: msg}, nil
	}
	if msg.Role != chat.RoleUser {
		return &AnalyzeOutcome{Skipped: true, SkipReason: "not_a_user_message", Message: msg}, nil
	}

	doc, err := s.cfg.Snapshot(dbc.Ctx)
	if err != nil {
		return nil, fmt.Errorf("config snapshot: %w", err)
	}
	profile, ok := doc.Scoring.Active()
	if !ok {
		profile = config.DefaultScoringProfile()
	}

	result := engine.ScoreMessage(msg.Content, profile)
	score := result.Traits.Mean()

	enabled, err := s.hooks.ListEnabled(dbc)
	if err != nil {
		return nil, fmt.Errorf("list hooks: %w", err)
	}
	lastFired, err := s.triggers.LatestBySession(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load hook firings: %w", err)
	}
	now := time.Now()
	fired := engine.EvaluateHooks(enabled, result.Traits, result.Flags, lastFired, now)

	firedCodes := make([]string, 0, len(fired))
	triggerRows := make([]*types.HookTrigger, 0, len(fired))
	for _, h := range fired {
		firedCodes = append(firedCodes, h.Code)
		triggerRows = append(triggerRows, &types.HookTrigger{
			HookID:    h.ID,
			SessionID: sessionID,
			MessageID: msg.ID,
			TurnIndex: turnIndex,
			FiredAt:   now,
		})
	}

	evidence := engine.AccumulateEvidence(session.Evidence.Data(), fired)
	moodBefore := session.MoodState
	moodAfter := engine.NextMood(evidence, moodBefore, doc.Mood)

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	err = transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: txx}
		if _, err := s.triggers.Create(txc, triggerRows); err != nil {
			return fmt.Errorf("record hook firings: %w", err)
		}
		if err := s.messages.UpdateFields(txc, msg.ID, map[string]interface{}{
			"score":       score,
			"label":       result.Label,
			"flags":       datatypes.NewJSONType(result.Flags),
			"traits":      datatypes.NewJSONType(result.Traits),
			"fired_hooks": datatypes.NewJSONType(firedCodes),
			"mood_after":  moodAfter,
			"analyzed_at": now,
		}); err != nil {
			return fmt.Errorf("persist message analysis: %w", err)
		}
		if err := s.sessions.UpdateAnalysisState(txc, sessionID, moodAfter, evidence); err != nil {
			return fmt.Errorf("persist session state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg.Score = &score
	msg.Label = result.Label
	msg.Flags = datatypes.NewJSONType(result.Flags)
	msg.Traits = datatypes.NewJSONType(result.Traits)
	msg.FiredHooks = datatypes.NewJSONType(firedCodes)
	msg.MoodAfter = moodAfter
	msg.AnalyzedAt = &now

	s.notify.MessageAnalyzed(session.UserID, msg)
	if moodAfter != moodBefore {
		s.notify.MoodChanged(session.UserID, sessionID, moodBefore, moodAfter)
	}

	// Trait rollup and gate evaluation run after every message and are each
	// independently recoverable: a failure here is logged, the other stage
	// still runs, and the job still reports success. The writes are
	// idempotent upserts, so the next turn repairs anything that was lost.
	if messages, listErr := s.messages.ListBySessionUpTo(dbc, sessionID, turnIndex); listErr != nil {
		s.log.Warn("Loading messages for rollup failed; skipping traits and gates", "session_id", sessionID, "error", listErr)
	} else {
		if err := s.updateTraitHistory(dbc, session, messages); err != nil {
			s.log.Warn("Trait rollup failed; continuing", "session_id", sessionID, "error", err)
		}
		stats := sessionStats(session, messages)
		if err := s.persistGateOutcomes(dbc, sessionID, stats, doc.Gates); err != nil {
			s.log.Warn("Gate evaluation failed; continuing", "session_id", sessionID, "error", err)
		}
	}

	// If the session was finalized while this turn was still in the queue,
	// the rollup may have been deferred; the deterministic job ID makes the
	// extra enqueue a no-op when finalize already won the race.
	if session.EndedAt != nil {
		if _, _, err := s.jobs.EnqueueSessionInsights(dbc, session.UserID, sessionID); err != nil {
			s.log.Warn("Failed to enqueue session insights after late analysis", "session_id", sessionID, "error", err)
		}
	}

	return &AnalyzeOutcome{
		Message:    msg,
		MoodBefore: moodBefore,
		MoodAfter:  moodAfter,
		FiredHooks: firedCodes,
	}, nil
}

// updateTraitHistory recomputes the per-session trait snapshot over the
// turns analyzed so far and upserts the session's history row, so every
// message overwrites the previous rollup with a strictly more complete one.
// The long-term score is read but never written here: it stays the
// session-start baseline until the insights job folds the session in once.
// Folding per turn would let an N-turn session discount that baseline by
// (1-alpha)^N instead of the single (1-alpha) the EMA promises.
func (s *analysisService) updateTraitHistory(dbc dbctx.Context, session *types.Session, messages []*types.Message) error {
	snapshot := engine.SessionSnapshot(messages)
	prev, err := s.longTerm.GetByUser(dbc, session.UserID)
	if err != nil {
		return fmt.Errorf("load long-term traits: %w", err)
	}
	var prevTraits *analysis.TraitVector
	if prev != nil {
		t := prev.Traits.Data()
		prevTraits = &t
	}
	deltas := engine.Deltas(snapshot, prevTraits)
	stats := sessionStats(session, messages)

	if err := s.history.Upsert(dbc, &types.TraitHistory{
		SessionID:       session.ID,
		UserID:          session.UserID,
		Traits:          datatypes.NewJSONType(snapshot),
		Deltas:          datatypes.NewJSONType(deltas),
		SessionScore:    snapshot.Mean(),
		MessageAvgScore: engine.MeanScore(stats.Scores),
	}); err != nil {
		return fmt.Errorf("persist trait history: %w", err)
	}
	return nil
}

func (s *analysisService) persistGateOutcomes(dbc dbctx.Context, sessionID uuid.UUID, stats engine.SessionStats, cfg config.GateConfig) error {
	results := engine.EvaluateGates(stats, cfg)
	rows := make([]*types.GateOutcome, 0, len(results))
	for _, g := range results {
		rows = append(rows, &types.GateOutcome{
			SessionID:  sessionID,
			GateKey:    g.Key,
			Passed:     g.Passed,
			ReasonCode: g.ReasonCode,
			Context:    datatypes.NewJSONType(g.Context),
		})
	}
	return s.gates.UpsertOutcomes(dbc, rows)
}

// BuildSessionInsights evaluates the universal gates, assigns the final
// session status, folds the session's trait snapshot into the user's
// long-term score, and writes the insight row. The insight row's unique
// session index is the idempotency guard for the whole rollup.
func (s *analysisService) BuildSessionInsights(dbc dbctx.Context, sessionID uuid.UUID) (*InsightsOutcome, error) {
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		s.log.Warn("Session gone before insights; skipping", "session_id", sessionID)
		return &InsightsOutcome{Skipped: true, SkipReason: "session_not_found"}, nil
	}
	if session.EndedAt == nil {
		return nil, fmt.Errorf("session %s has not ended", sessionID)
	}

	if existing, err := s.insights.GetBySession(dbc, sessionID); err != nil {
		return nil, fmt.Errorf("check existing insight: %w", err)
	} else if existing != nil {
		return &InsightsOutcome{Skipped: true, SkipReason: "insight_exists", FinalStatus: session.Status, Insight: existing}, nil
	}

	doc, err := s.cfg.Snapshot(dbc.Ctx)
	if err != nil {
		return nil, fmt.Errorf("config snapshot: %w", err)
	}
	profile, ok := doc.Scoring.Active()
	if !ok {
		profile = config.DefaultScoringProfile()
	}

	messages, err := s.messages.ListBySessionUpTo(dbc, sessionID, -1)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	stats := sessionStats(session, messages)
	gateResults := engine.EvaluateGates(stats, doc.Gates)
	finalStatus := finalStatusFor(session.Status, gateResults)

	prev, err := s.longTerm.GetByUser(dbc, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load long-term traits: %w", err)
	}
	var prevTraits *analysis.TraitVector
	sessionsCount := 0
	if prev != nil {
		t := prev.Traits.Data()
		prevTraits = &t
		sessionsCount = prev.SessionsCount
	}

	// The per-message chain maintains the trait history row; the fold into
	// the long-term score happens exactly once, here, against the baseline
	// that held when the session started. A missing history row means no
	// user turn was ever analyzed, so the snapshot is computed on the spot.
	historyRow, err := s.history.GetBySession(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load trait history: %w", err)
	}
	needHistoryWrite := historyRow == nil
	if historyRow == nil {
		snapshot := engine.SessionSnapshot(messages)
		historyRow = &types.TraitHistory{
			SessionID:       sessionID,
			UserID:          session.UserID,
			Traits:          datatypes.NewJSONType(snapshot),
			Deltas:          datatypes.NewJSONType(engine.Deltas(snapshot, prevTraits)),
			SessionScore:    snapshot.Mean(),
			MessageAvgScore: engine.MeanScore(stats.Scores),
		}
	}
	longTermTraits := engine.UpdateLongTerm(historyRow.Traits.Data(), prevTraits, profile.EMAAlpha)

	outcomeRows := make([]*types.GateOutcome, 0, len(gateResults))
	for _, g := range gateResults {
		outcomeRows = append(outcomeRows, &types.GateOutcome{
			SessionID:  sessionID,
			GateKey:    g.Key,
			Passed:     g.Passed,
			ReasonCode: g.ReasonCode,
			Context:    datatypes.NewJSONType(g.Context),
		})
	}

	var insight *types.SessionInsight
	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	err = transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: txx}
		if err := s.gates.UpsertOutcomes(txc, outcomeRows); err != nil {
			return fmt.Errorf("persist gate outcomes: %w", err)
		}
		if needHistoryWrite {
			if err := s.history.Upsert(txc, historyRow); err != nil {
				return fmt.Errorf("persist trait history: %w", err)
			}
		}
		if err := s.longTerm.Upsert(txc, &types.TraitLongTermScore{
			UserID:        session.UserID,
			Traits:        datatypes.NewJSONType(longTermTraits),
			SessionsCount: sessionsCount + 1,
		}); err != nil {
			return fmt.Errorf("persist long-term traits: %w", err)
		}
		if finalStatus != session.Status {
			if err := s.sessions.UpdateFields(txc, sessionID, map[string]interface{}{
				"status": finalStatus,
			}); err != nil {
				return fmt.Errorf("persist final status: %w", err)
			}
			session.Status = finalStatus
		}

		gateRows, err := s.gates.ListBySession(txc, sessionID)
		if err != nil {
			return fmt.Errorf("reload gate outcomes: %w", err)
		}
		payload := s.builder.Build(session, messages, gateRows, historyRow)
		insight = &types.SessionInsight{
			SessionID: sessionID,
			UserID:    session.UserID,
			Payload:   datatypes.NewJSONType(payload),
		}
		if err := s.insights.Create(txc, insight); err != nil {
			return fmt.Errorf("persist insight: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.InsightReady(session.UserID, insight)
	return &InsightsOutcome{FinalStatus: finalStatus, Insight: insight}, nil
}

// sessionStats reduces the message list plus session payload to the gate
// evaluation input. Only analyzed USER messages with in-range scores count.
func sessionStats(session *types.Session, messages []*types.Message) engine.SessionStats {
	stats := engine.SessionStats{
		EndReason:   session.EndReason,
		ProgressPct: session.Payload.Data().ProgressPct,
		Scores:      []float64{},
	}
	for _, m := range messages {
		if m == nil || m.Role != chat.RoleUser {
			continue
		}
		stats.UserMessageCount++
		if m.HasValidScore() {
			stats.Scores = append(stats.Scores, *m.Score)
		}
	}
	return stats
}

// finalStatusFor maps gate results to the terminal session status. A status
// already made terminal elsewhere is left alone.
func finalStatusFor(current string, results []engine.GateResult) string {
	if chat.IsTerminalStatus(current) {
		return current
	}
	allPassed := true
	for _, g := range results {
		if g.Key == analysis.GateDisqualified && !g.Passed {
			return chat.SessionDisqualified
		}
		if !g.Passed {
			allPassed = false
		}
	}
	if allPassed {
		return chat.SessionSuccess
	}
	return chat.SessionFail
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/veloria/rapport-backend/internal/data/repos"
	"github.com/veloria/rapport-backend/internal/data/repos/testutil"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/config"
	"github.com/veloria/rapport-backend/internal/engine"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
)

// The long-term EMA must discount the pre-session baseline by exactly
// (1-alpha) per completed session, no matter how many turns the session had.
// The per-message chain only maintains the trait history row; the insights
// job performs the single fold and counts the session once.
func TestBuildSessionInsightsFoldsBaselineOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	userID := uuid.New()
	session := testutil.SeedSession(t, ctx, tx, userID)
	ended := time.Now()
	if err := tx.WithContext(ctx).Model(&types.Session{}).Where("id = ?", session.ID).
		Updates(map[string]interface{}{"ended_at": ended, "end_reason": "COMPLETED"}).Error; err != nil {
		t.Fatalf("end session: %v", err)
	}

	baseline := analysis.TraitVector{Confidence: 50, Clarity: 50, Humor: 50, TensionControl: 50, EmotionalWarmth: 50, Dominance: 50}
	if err := tx.WithContext(ctx).Create(&types.TraitLongTermScore{
		UserID:        userID,
		Traits:        datatypes.NewJSONType(baseline),
		SessionsCount: 2,
	}).Error; err != nil {
		t.Fatalf("seed long-term score: %v", err)
	}

	// The history row as the per-message chain leaves it after many turns.
	snapshot := analysis.TraitVector{Confidence: 80, Clarity: 80, Humor: 80, TensionControl: 80, EmotionalWarmth: 80, Dominance: 80}
	if err := tx.WithContext(ctx).Create(&types.TraitHistory{
		SessionID:    session.ID,
		UserID:       userID,
		Traits:       datatypes.NewJSONType(snapshot),
		Deltas:       datatypes.NewJSONType(engine.Deltas(snapshot, &baseline)),
		SessionScore: snapshot.Mean(),
	}).Error; err != nil {
		t.Fatalf("seed trait history: %v", err)
	}

	cfgSvc := NewConfigService(db, log, repos.NewAppConfigRepo(db, log), time.Minute)
	svc := NewAnalysisService(
		db, log,
		repos.NewSessionRepo(db, log),
		repos.NewMessageRepo(db, log),
		repos.NewHookRepo(db, log),
		repos.NewHookTriggerRepo(db, log),
		repos.NewGateOutcomeRepo(db, log),
		repos.NewTraitHistoryRepo(db, log),
		repos.NewTraitScoreRepo(db, log),
		repos.NewSessionInsightRepo(db, log),
		cfgSvc,
		NewInsightsBuilder(),
		NewAnalysisNotifier(nil),
		NewJobService(db, log, repos.NewJobRunRepo(db, log), NewJobNotifier(nil)),
	)

	doc, err := cfgSvc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("config snapshot: %v", err)
	}
	profile, ok := doc.Scoring.Active()
	if !ok {
		profile = config.DefaultScoringProfile()
	}
	want := engine.UpdateLongTerm(snapshot, &baseline, profile.EMAAlpha)

	out, err := svc.BuildSessionInsights(dbc, session.ID)
	if err != nil {
		t.Fatalf("BuildSessionInsights: %v", err)
	}
	if out.Skipped {
		t.Fatalf("unexpected skip: %s", out.SkipReason)
	}

	var score types.TraitLongTermScore
	if err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&score).Error; err != nil {
		t.Fatalf("load long-term score: %v", err)
	}
	if got := score.Traits.Data(); got != want {
		t.Fatalf("long-term traits = %+v, want single fold %+v", got, want)
	}
	if score.SessionsCount != 3 {
		t.Fatalf("sessions_count = %d, want 3", score.SessionsCount)
	}

	// A repeat run is a no-op: the existing insight row short-circuits before
	// anything folds or counts again.
	again, err := svc.BuildSessionInsights(dbc, session.ID)
	if err != nil {
		t.Fatalf("BuildSessionInsights repeat: %v", err)
	}
	if !again.Skipped || again.SkipReason != "insight_exists" {
		t.Fatalf("expected insight_exists skip, got %+v", again)
	}
	if err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&score).Error; err != nil {
		t.Fatalf("reload long-term score: %v", err)
	}
	if got := score.Traits.Data(); got != want || score.SessionsCount != 3 {
		t.Fatalf("repeat run changed the fold: traits=%+v count=%d", got, score.SessionsCount)
	}
}

package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/veloria/rapport-backend/internal/data/repos/testutil"
	types "github.com/veloria/rapport-backend/internal/domain"
	domanalysis "github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

func dbcFor(ctx context.Context, tx *gorm.DB) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: tx}
}

func TestGateOutcomeRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbcFor(ctx, tx)
	repo := NewGateOutcomeRepo(db, testutil.Logger(t))

	sessionID := uuid.New()

	first := []*types.GateOutcome{
		{
			SessionID:  sessionID,
			GateKey:    domanalysis.GateMinMessages,
			Passed:     false,
			ReasonCode: domanalysis.ReasonInsufficientMessages,
		},
		{
			SessionID:  sessionID,
			GateKey:    domanalysis.GateSuccessThreshold,
			Passed:     false,
			ReasonCode: domanalysis.ReasonNoScoresAvailable,
		},
	}
	if err := repo.UpsertOutcomes(dbc, first); err != nil {
		t.Fatalf("UpsertOutcomes #1: %v", err)
	}

	// Re-evaluating the same gates must overwrite, not duplicate.
	second := []*types.GateOutcome{
		{
			SessionID:  sessionID,
			GateKey:    domanalysis.GateMinMessages,
			Passed:     true,
			ReasonCode: "",
		},
	}
	if err := repo.UpsertOutcomes(dbc, second); err != nil {
		t.Fatalf("UpsertOutcomes #2: %v", err)
	}

	rows, err := repo.ListBySession(dbc, sessionID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(rows))
	}
	for _, row := range rows {
		if row.GateKey == domanalysis.GateMinMessages && !row.Passed {
			t.Fatalf("min-messages gate not overwritten: %+v", row)
		}
	}
}

func TestHookTriggerRepoLatestBySession(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbcFor(ctx, tx)
	repo := NewHookTriggerRepo(db, testutil.Logger(t))

	sessionID := uuid.New()
	hookID := uuid.New()
	otherHookID := uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)

	triggers := []*types.HookTrigger{
		{HookID: hookID, SessionID: sessionID, MessageID: uuid.New(), TurnIndex: 1, FiredAt: now.Add(-2 * time.Minute)},
		{HookID: hookID, SessionID: sessionID, MessageID: uuid.New(), TurnIndex: 3, FiredAt: now.Add(-1 * time.Minute)},
		{HookID: otherHookID, SessionID: sessionID, MessageID: uuid.New(), TurnIndex: 2, FiredAt: now.Add(-5 * time.Minute)},
		// Different session: must not leak into the result.
		{HookID: hookID, SessionID: uuid.New(), MessageID: uuid.New(), TurnIndex: 1, FiredAt: now},
	}
	if _, err := repo.Create(dbc, triggers); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := repo.LatestBySession(dbc, sessionID)
	if err != nil {
		t.Fatalf("LatestBySession: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(latest))
	}
	if got := latest[hookID]; !got.Equal(now.Add(-1 * time.Minute)) {
		t.Fatalf("expected most recent firing, got %v", got)
	}
	if got := latest[otherHookID]; !got.Equal(now.Add(-5 * time.Minute)) {
		t.Fatalf("expected other hook firing, got %v", got)
	}
}

func TestTraitScoreRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbcFor(ctx, tx)
	repo := NewTraitScoreRepo(db, testutil.Logger(t))

	userID := uuid.New()

	if got, err := repo.GetByUser(dbc, userID); err != nil || got != nil {
		t.Fatalf("GetByUser empty: got=%v err=%v", got, err)
	}

	score := &types.TraitLongTermScore{
		UserID:        userID,
		Traits:        datatypes.NewJSONType(domanalysis.TraitVector{Confidence: 60}),
		SessionsCount: 1,
	}
	if err := repo.Upsert(dbc, score); err != nil {
		t.Fatalf("Upsert #1: %v", err)
	}

	score2 := &types.TraitLongTermScore{
		UserID:        userID,
		Traits:        datatypes.NewJSONType(domanalysis.TraitVector{Confidence: 65}),
		SessionsCount: 2,
	}
	if err := repo.Upsert(dbc, score2); err != nil {
		t.Fatalf("Upsert #2: %v", err)
	}

	got, err := repo.GetByUser(dbc, userID)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if got == nil || got.SessionsCount != 2 {
		t.Fatalf("expected folded score with 2 sessions, got %+v", got)
	}
	if got.Traits.Data().Confidence != 65 {
		t.Fatalf("expected updated traits, got %+v", got.Traits.Data())
	}
}

func TestSessionInsightRepoCreateOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbcFor(ctx, tx)
	repo := NewSessionInsightRepo(db, testutil.Logger(t))

	sessionID := uuid.New()
	mk := func(headline string) *types.SessionInsight {
		return &types.SessionInsight{
			SessionID: sessionID,
			UserID:    uuid.New(),
			Payload: datatypes.NewJSONType(domanalysis.InsightPayload{
				SchemaVersion: domanalysis.InsightSchemaVersion,
				Headline:      headline,
			}),
		}
	}

	if err := repo.Create(dbc, mk("first")); err != nil {
		t.Fatalf("Create #1: %v", err)
	}
	if err := repo.Create(dbc, mk("second")); err != nil {
		t.Fatalf("Create #2: %v", err)
	}

	got, err := repo.GetBySession(dbc, sessionID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got == nil || got.Payload.Data().Headline != "first" {
		t.Fatalf("expected first insight to win, got %+v", got)
	}
}

package engine

import (
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
)

func analyzedMessage(role string, traits analysis.TraitVector) *chat.Message {
	now := time.Now()
	score := traits.Mean()
	return &chat.Message{
		Role:       role,
		Score:      &score,
		Traits:     datatypes.NewJSONType(traits),
		AnalyzedAt: &now,
	}
}

func TestSessionSnapshot(t *testing.T) {
	msgs := []*chat.Message{
		analyzedMessage(chat.RoleUser, analysis.TraitVector{Confidence: 80, Clarity: 60, Humor: 40, TensionControl: 50, EmotionalWarmth: 70, Dominance: 30}),
		analyzedMessage(chat.RoleUser, analysis.TraitVector{Confidence: 60, Clarity: 80, Humor: 60, TensionControl: 50, EmotionalWarmth: 30, Dominance: 50}),
		// AI and unanalyzed messages are excluded from the average.
		analyzedMessage(chat.RoleAI, analysis.TraitVector{Confidence: 100, Clarity: 100, Humor: 100, TensionControl: 100, EmotionalWarmth: 100, Dominance: 100}),
		{Role: chat.RoleUser, Content: "not yet analyzed"},
	}

	snap := SessionSnapshot(msgs)
	want := analysis.TraitVector{Confidence: 70, Clarity: 70, Humor: 50, TensionControl: 50, EmotionalWarmth: 50, Dominance: 40}
	if snap != want {
		t.Fatalf("snapshot=%+v, want %+v", snap, want)
	}
}

func TestSessionSnapshotEmpty(t *testing.T) {
	snap := SessionSnapshot([]*chat.Message{
		{Role: chat.RoleAI},
		{Role: chat.RoleUser},
	})
	if snap != (analysis.TraitVector{}) {
		t.Fatalf("expected zero vector, got %+v", snap)
	}
}

func TestSessionSnapshotInvalidValuesCountAsZero(t *testing.T) {
	msgs := []*chat.Message{
		analyzedMessage(chat.RoleUser, analysis.TraitVector{Confidence: 200, Clarity: -10, Humor: 50}),
		analyzedMessage(chat.RoleUser, analysis.TraitVector{Confidence: 50, Clarity: 50, Humor: 50}),
	}
	snap := SessionSnapshot(msgs)
	if snap.Confidence != 25 || snap.Clarity != 25 || snap.Humor != 50 {
		t.Fatalf("out-of-range values must contribute 0: %+v", snap)
	}
}

func TestDeltas(t *testing.T) {
	current := analysis.TraitVector{Confidence: 70, Clarity: 60, Humor: 50, TensionControl: 40, EmotionalWarmth: 30, Dominance: 20}
	previous := analysis.TraitVector{Confidence: 50, Clarity: 65, Humor: 50, TensionControl: 45, EmotionalWarmth: 10, Dominance: 60}

	d := Deltas(current, &previous)
	if d.Confidence != 20 || d.Clarity != -5 || d.Humor != 0 || d.Dominance != -40 {
		t.Fatalf("deltas wrong: %+v", d)
	}

	// No previous long-term score: current verbatim.
	if d := Deltas(current, nil); d != current {
		t.Fatalf("first-session deltas should equal current, got %+v", d)
	}
}

func TestUpdateLongTermEMABoundaries(t *testing.T) {
	current := analysis.TraitVector{Confidence: 80, Clarity: 70, Humor: 60, TensionControl: 50, EmotionalWarmth: 40, Dominance: 30}
	previous := analysis.TraitVector{Confidence: 40, Clarity: 40, Humor: 40, TensionControl: 40, EmotionalWarmth: 40, Dominance: 40}

	// alpha=1: new score equals the session snapshot exactly.
	if got := UpdateLongTerm(current, &previous, 1.0); got != current {
		t.Fatalf("alpha=1: got %+v, want %+v", got, current)
	}
	// alpha=0: new score equals the previous score exactly.
	if got := UpdateLongTerm(current, &previous, 0.0); got != previous {
		t.Fatalf("alpha=0: got %+v, want %+v", got, previous)
	}
	// No previous score: baseline with no smoothing.
	if got := UpdateLongTerm(current, nil, 0.3); got != current {
		t.Fatalf("first session: got %+v, want %+v", got, current)
	}
}

func TestUpdateLongTermSmoothing(t *testing.T) {
	current := analysis.TraitVector{Confidence: 100}
	previous := analysis.TraitVector{Confidence: 50}

	got := UpdateLongTerm(current, &previous, 0.3)
	// 100*0.3 + 50*0.7 = 65
	if got.Confidence != 65 {
		t.Fatalf("confidence=%v, want 65", got.Confidence)
	}
	// Untouched traits decay toward zero only as far as the math says.
	if got.Humor != 0 {
		t.Fatalf("humor=%v, want 0", got.Humor)
	}
}

func TestUpdateLongTermRoundsAndClamps(t *testing.T) {
	current := analysis.TraitVector{Confidence: 33}
	previous := analysis.TraitVector{Confidence: 34}
	got := UpdateLongTerm(current, &previous, 0.5)
	// 33.5 rounds to 34 (math.Round half away from zero)
	if got.Confidence != 34 {
		t.Fatalf("confidence=%v, want 34", got.Confidence)
	}
}

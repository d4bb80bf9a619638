package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
)

func mkHook(code string, priority int, cooldown int, cond analysis.HookCondition) analysis.Hook {
	return analysis.Hook{
		ID:              uuid.New(),
		Code:            code,
		IsEnabled:       true,
		Priority:        priority,
		CooldownSeconds: cooldown,
		Condition:       datatypes.NewJSONType(cond),
		EvidenceCluster: analysis.ClusterPositive,
		EvidenceWeight:  1,
	}
}

func TestEvaluateHooksConditionMatching(t *testing.T) {
	traits := analysis.TraitVector{Confidence: 80, Clarity: 70, Humor: 40, TensionControl: 55, EmotionalWarmth: 65, Dominance: 30}

	confident := mkHook("confident", 10, 0, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{{Trait: "confidence", Op: analysis.OpGTE, Value: 70}},
	})
	meek := mkHook("meek", 5, 0, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{{Trait: "dominance", Op: analysis.OpLTE, Value: 35}},
	})
	unfunny := mkHook("unfunny", 1, 0, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{{Trait: "humor", Op: analysis.OpGTE, Value: 75}},
	})
	flagged := mkHook("flagged", 20, 0, analysis.HookCondition{
		RequiredFlags: []string{FlagUncertainty},
	})

	fired := EvaluateHooks(
		[]analysis.Hook{confident, meek, unfunny, flagged},
		traits,
		[]string{FlagUncertainty},
		nil,
		time.Now(),
	)

	if len(fired) != 3 {
		t.Fatalf("expected 3 fired hooks, got %d", len(fired))
	}
	// descending priority order
	if fired[0].Code != "flagged" || fired[1].Code != "confident" || fired[2].Code != "meek" {
		t.Fatalf("wrong firing order: %s, %s, %s", fired[0].Code, fired[1].Code, fired[2].Code)
	}
}

func TestEvaluateHooksAllRequirementsMustHold(t *testing.T) {
	traits := analysis.TraitVector{Confidence: 80, Humor: 10}
	h := mkHook("combo", 0, 0, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{
			{Trait: "confidence", Op: analysis.OpGTE, Value: 70},
			{Trait: "humor", Op: analysis.OpGTE, Value: 50},
		},
		RequiredFlags: []string{FlagLowEffort},
	})
	if fired := EvaluateHooks([]analysis.Hook{h}, traits, []string{FlagLowEffort}, nil, time.Now()); len(fired) != 0 {
		t.Fatalf("humor requirement unmet, expected no firing, got %d", len(fired))
	}
}

func TestEvaluateHooksDisabledAndUnknown(t *testing.T) {
	traits := analysis.TraitVector{Confidence: 90}
	disabled := mkHook("disabled", 0, 0, analysis.HookCondition{})
	disabled.IsEnabled = false
	badOp := mkHook("bad_op", 0, 0, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{{Trait: "confidence", Op: "eq", Value: 90}},
	})
	badTrait := mkHook("bad_trait", 0, 0, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{{Trait: "swagger", Op: analysis.OpGTE, Value: 1}},
	})
	if fired := EvaluateHooks([]analysis.Hook{disabled, badOp, badTrait}, traits, nil, nil, time.Now()); len(fired) != 0 {
		t.Fatalf("expected no firings, got %d", len(fired))
	}
}

func TestEvaluateHooksCooldown(t *testing.T) {
	traits := analysis.TraitVector{Confidence: 90}
	h := mkHook("cooldown", 0, 60, analysis.HookCondition{
		RequiredTraits: []analysis.TraitRequirement{{Trait: "confidence", Op: analysis.OpGTE, Value: 50}},
	})

	t0 := time.Now()
	lastFired := map[uuid.UUID]time.Time{h.ID: t0}

	// Inside the window: must not fire.
	if fired := EvaluateHooks([]analysis.Hook{h}, traits, nil, lastFired, t0.Add(59*time.Second)); len(fired) != 0 {
		t.Fatalf("fired inside cooldown window")
	}
	// At exactly the boundary: eligible again.
	if fired := EvaluateHooks([]analysis.Hook{h}, traits, nil, lastFired, t0.Add(60*time.Second)); len(fired) != 1 {
		t.Fatalf("expected firing at cooldown boundary")
	}
	// Never fired before: eligible.
	if fired := EvaluateHooks([]analysis.Hook{h}, traits, nil, nil, t0); len(fired) != 1 {
		t.Fatalf("expected firing with no prior trigger")
	}
	// Zero cooldown fires every time regardless of history.
	h.CooldownSeconds = 0
	if fired := EvaluateHooks([]analysis.Hook{h}, traits, nil, lastFired, t0); len(fired) != 1 {
		t.Fatalf("expected zero-cooldown hook to fire")
	}
}

func TestAccumulateEvidence(t *testing.T) {
	pos := mkHook("pos", 0, 0, analysis.HookCondition{})
	pos.EvidenceWeight = 1.5
	neg := mkHook("neg", 0, 0, analysis.HookCondition{})
	neg.EvidenceCluster = analysis.ClusterNegative
	neg.EvidenceWeight = 2
	// Zero weight is a configured audit-only hook: it fires but moves no
	// evidence. The unset cluster still lands in "default".
	audit := mkHook("audit", 0, 0, analysis.HookCondition{})
	audit.EvidenceCluster = ""
	audit.EvidenceWeight = 0

	prior := analysis.EvidenceMap{analysis.ClusterPositive: 1}
	got := AccumulateEvidence(prior, []analysis.Hook{pos, neg, audit})

	if got[analysis.ClusterPositive] != 2.5 {
		t.Fatalf("positive=%v, want 2.5", got[analysis.ClusterPositive])
	}
	if got[analysis.ClusterNegative] != 2 {
		t.Fatalf("negative=%v, want 2", got[analysis.ClusterNegative])
	}
	if got[analysis.ClusterDefault] != 0 {
		t.Fatalf("default=%v, want 0 from a zero-weight hook", got[analysis.ClusterDefault])
	}
	// input map untouched
	if prior[analysis.ClusterPositive] != 1 || len(prior) != 1 {
		t.Fatalf("input evidence map mutated: %v", prior)
	}
}

func TestAccumulateEvidenceNilMap(t *testing.T) {
	h := mkHook("h", 0, 0, analysis.HookCondition{})
	got := AccumulateEvidence(nil, []analysis.Hook{h})
	if got[analysis.ClusterPositive] != 1 {
		t.Fatalf("expected 1 on nil input map, got %v", got)
	}
}

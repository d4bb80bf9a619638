package engine

import (
	"testing"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/config"
)

func gateByKey(t *testing.T, results []GateResult, key string) GateResult {
	t.Helper()
	for _, r := range results {
		if r.Key == key {
			return r
		}
	}
	t.Fatalf("gate %s missing from results", key)
	return GateResult{}
}

func TestEvaluateGatesAlwaysFive(t *testing.T) {
	results := EvaluateGates(SessionStats{}, config.DefaultGateConfig())
	if len(results) != 5 {
		t.Fatalf("expected 5 gate results, got %d", len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Key] {
			t.Fatalf("duplicate gate key %s", r.Key)
		}
		seen[r.Key] = true
	}
}

func TestMinMessagesGate(t *testing.T) {
	cfg := config.DefaultGateConfig()

	// Two USER messages under the default minimum of three fail even with
	// high scores.
	stats := SessionStats{UserMessageCount: 2, Scores: []float64{95, 92}}
	r := gateByKey(t, EvaluateGates(stats, cfg), analysis.GateMinMessages)
	if r.Passed {
		t.Fatalf("expected fail with 2 messages")
	}
	if r.ReasonCode != analysis.ReasonInsufficientMessages {
		t.Fatalf("reason=%s, want %s", r.ReasonCode, analysis.ReasonInsufficientMessages)
	}

	stats.UserMessageCount = 3
	if r := gateByKey(t, EvaluateGates(stats, cfg), analysis.GateMinMessages); !r.Passed {
		t.Fatalf("expected pass at exactly the minimum")
	}
}

func TestSuccessAndFloorAsymmetry(t *testing.T) {
	cfg := config.DefaultGateConfig()

	// Mean 41: floor passes (41 > 40), success fails (41 < 70). Both
	// outcomes coexist in a single evaluation.
	results := EvaluateGates(SessionStats{UserMessageCount: 3, Scores: []float64{41, 41, 41}}, cfg)
	if r := gateByKey(t, results, analysis.GateFailFloor); !r.Passed {
		t.Fatalf("floor should pass at mean 41")
	}
	success := gateByKey(t, results, analysis.GateSuccessThreshold)
	if success.Passed {
		t.Fatalf("success should fail at mean 41")
	}
	if success.ReasonCode != analysis.ReasonBelowSuccessThreshold {
		t.Fatalf("reason=%s", success.ReasonCode)
	}

	// Exactly at the floor fails (strict >), exactly at the threshold passes (>=).
	results = EvaluateGates(SessionStats{UserMessageCount: 3, Scores: []float64{40}}, cfg)
	if r := gateByKey(t, results, analysis.GateFailFloor); r.Passed {
		t.Fatalf("floor must be strictly greater-than")
	}
	results = EvaluateGates(SessionStats{UserMessageCount: 3, Scores: []float64{70}}, cfg)
	if r := gateByKey(t, results, analysis.GateSuccessThreshold); !r.Passed {
		t.Fatalf("success threshold is inclusive")
	}
}

func TestScoreGatesWithNoScores(t *testing.T) {
	cfg := config.DefaultGateConfig()
	results := EvaluateGates(SessionStats{UserMessageCount: 4}, cfg)

	success := gateByKey(t, results, analysis.GateSuccessThreshold)
	if success.Passed || success.ReasonCode != analysis.ReasonNoScoresAvailable {
		t.Fatalf("success gate with no scores: passed=%v reason=%s", success.Passed, success.ReasonCode)
	}
	floor := gateByKey(t, results, analysis.GateFailFloor)
	if floor.Passed || floor.ReasonCode != analysis.ReasonNoScoresAvailable {
		t.Fatalf("floor gate with no scores: passed=%v reason=%s", floor.Passed, floor.ReasonCode)
	}
}

func TestDisqualifiedGate(t *testing.T) {
	cfg := config.DefaultGateConfig()

	for _, reason := range []string{"DISQUALIFIED", "VIOLATION", "ABUSE"} {
		r := gateByKey(t, EvaluateGates(SessionStats{EndReason: reason}, cfg), analysis.GateDisqualified)
		if r.Passed {
			t.Fatalf("end reason %s must fail the gate", reason)
		}
		if r.ReasonCode != analysis.ReasonDisqualifyingEnd {
			t.Fatalf("reason=%s", r.ReasonCode)
		}
	}
	for _, reason := range []string{"", "COMPLETED", "TIMEOUT"} {
		r := gateByKey(t, EvaluateGates(SessionStats{EndReason: reason}, cfg), analysis.GateDisqualified)
		if !r.Passed {
			t.Fatalf("end reason %q must pass the gate", reason)
		}
	}
}

func TestObjectiveProgressGate(t *testing.T) {
	cfg := config.DefaultGateConfig()

	r := gateByKey(t, EvaluateGates(SessionStats{}, cfg), analysis.GateObjectiveProgress)
	if r.Passed || r.ReasonCode != analysis.ReasonNoProgressData {
		t.Fatalf("absent progress: passed=%v reason=%s", r.Passed, r.ReasonCode)
	}

	cases := []struct {
		pct    float64
		passed bool
	}{
		{pct: 49.9, passed: false},
		{pct: 50, passed: true},
		{pct: 100, passed: true},
		{pct: 0, passed: false},
	}
	for _, tc := range cases {
		pct := tc.pct
		r := gateByKey(t, EvaluateGates(SessionStats{ProgressPct: &pct}, cfg), analysis.GateObjectiveProgress)
		if r.Passed != tc.passed {
			t.Fatalf("progress %v: passed=%v, want %v", tc.pct, r.Passed, tc.passed)
		}
	}
}

func TestEvaluateGatesDeterministic(t *testing.T) {
	cfg := config.DefaultGateConfig()
	pct := 62.0
	stats := SessionStats{UserMessageCount: 5, Scores: []float64{55, 80, 71}, EndReason: "COMPLETED", ProgressPct: &pct}

	a := EvaluateGates(stats, cfg)
	b := EvaluateGates(stats, cfg)
	for i := range a {
		if a[i].Key != b[i].Key || a[i].Passed != b[i].Passed || a[i].ReasonCode != b[i].ReasonCode {
			t.Fatalf("gate evaluation not deterministic at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

package engine

import (
	"fmt"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
	"github.com/veloria/rapport-backend/internal/domain/config"
)

// Every other gate threshold lives in GateConfig; this one is inline in the
// original rule set and stays hard-coded until product decides whether it
// belongs in GateConfig.
const objectiveProgressMinPct = 50.0

// SessionStats is the in-flight input to gate evaluation: derived from
// persisted session state for final evaluation, or assembled ad hoc for
// mid-mission ("active session") checks that never persist outcomes.
type SessionStats struct {
	UserMessageCount int
	Scores           []float64 // valid per-message scores (0-100), USER messages only
	EndReason        string
	ProgressPct      *float64
}

type GateResult struct {
	Key        string
	Passed     bool
	ReasonCode string
	Context    analysis.GateContext
}

var disqualifyingEndReasons = map[string]struct{}{
	chat.EndReasonDisqualified: {},
	chat.EndReasonViolation:    {},
	chat.EndReasonAbuse:        {},
}

// EvaluateGates runs the five universal gates. Each gate is a pure predicate
// over the stats; persistence (idempotent upsert per (session, gate key)) is
// the caller's concern.
func EvaluateGates(stats SessionStats, cfg config.GateConfig) []GateResult {
	return []GateResult{
		evalMinMessages(stats, cfg),
		evalSuccessThreshold(stats, cfg),
		evalFailFloor(stats, cfg),
		evalDisqualified(stats),
		evalObjectiveProgress(stats),
	}
}

func evalMinMessages(stats SessionStats, cfg config.GateConfig) GateResult {
	observed := float64(stats.UserMessageCount)
	threshold := float64(cfg.MinMessages)
	res := GateResult{
		Key:     analysis.GateMinMessages,
		Passed:  stats.UserMessageCount >= cfg.MinMessages,
		Context: analysis.GateContext{Observed: &observed, Threshold: &threshold},
	}
	if !res.Passed {
		res.ReasonCode = analysis.ReasonInsufficientMessages
	}
	return res
}

func evalSuccessThreshold(stats SessionStats, cfg config.GateConfig) GateResult {
	threshold := cfg.SuccessThreshold
	if len(stats.Scores) == 0 {
		return GateResult{
			Key:        analysis.GateSuccessThreshold,
			Passed:     false,
			ReasonCode: analysis.ReasonNoScoresAvailable,
			Context:    analysis.GateContext{Threshold: &threshold},
		}
	}
	mean := MeanScore(stats.Scores)
	res := GateResult{
		Key:     analysis.GateSuccessThreshold,
		Passed:  mean >= cfg.SuccessThreshold,
		Context: analysis.GateContext{Observed: &mean, Threshold: &threshold},
	}
	if !res.Passed {
		res.ReasonCode = analysis.ReasonBelowSuccessThreshold
	}
	return res
}

func evalFailFloor(stats SessionStats, cfg config.GateConfig) GateResult {
	threshold := cfg.FailFloor
	if len(stats.Scores) == 0 {
		return GateResult{
			Key:        analysis.GateFailFloor,
			Passed:     false,
			ReasonCode: analysis.ReasonNoScoresAvailable,
			Context:    analysis.GateContext{Threshold: &threshold},
		}
	}
	mean := MeanScore(stats.Scores)
	// Strictly greater than the floor; asymmetric with the >= above.
	res := GateResult{
		Key:     analysis.GateFailFloor,
		Passed:  mean > cfg.FailFloor,
		Context: analysis.GateContext{Observed: &mean, Threshold: &threshold},
	}
	if !res.Passed {
		res.ReasonCode = analysis.ReasonAtOrBelowFailFloor
	}
	return res
}

func evalDisqualified(stats SessionStats) GateResult {
	_, disqualifying := disqualifyingEndReasons[stats.EndReason]
	res := GateResult{
		Key:    analysis.GateDisqualified,
		Passed: !disqualifying,
	}
	if disqualifying {
		res.ReasonCode = analysis.ReasonDisqualifyingEnd
		res.Context = analysis.GateContext{Detail: fmt.Sprintf("end_reason=%s", stats.EndReason)}
	}
	return res
}

func evalObjectiveProgress(stats SessionStats) GateResult {
	threshold := objectiveProgressMinPct
	if stats.ProgressPct == nil {
		return GateResult{
			Key:        analysis.GateObjectiveProgress,
			Passed:     false,
			ReasonCode: analysis.ReasonNoProgressData,
			Context:    analysis.GateContext{Threshold: &threshold},
		}
	}
	observed := *stats.ProgressPct
	res := GateResult{
		Key:     analysis.GateObjectiveProgress,
		Passed:  observed >= objectiveProgressMinPct,
		Context: analysis.GateContext{Observed: &observed, Threshold: &threshold},
	}
	if !res.Passed {
		res.ReasonCode = analysis.ReasonProgressBelowTarget
	}
	return res
}

func MeanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

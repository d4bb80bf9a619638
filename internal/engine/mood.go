package engine

import (
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/config"
)

// NextMood derives the session's mood state from cumulative evidence and the
// previous state. Outside the dead zone mood is a pure function of the
// positive-negative net; inside it the previous state is retained. The
// stickiness is deliberate hysteresis, not a reset to NEUTRAL. Do not
// "fix" it without confirming intent with product.
//
// Correctness depends on callers applying turns for one session in
// non-decreasing turn order; out-of-order delivery silently corrupts the
// trajectory.
func NextMood(evidence analysis.EvidenceMap, prev string, cfg config.MoodConfig) string {
	net := evidence.Net()
	switch {
	case net > cfg.FlowAbove:
		return analysis.MoodFlow
	case net < cfg.TenseBelow:
		return analysis.MoodTense
	case net > cfg.WarmAbove:
		return analysis.MoodWarm
	case net < cfg.ColdBelow:
		return analysis.MoodCold
	}
	if !analysis.IsValidMood(prev) {
		return analysis.MoodNeutral
	}
	return prev
}

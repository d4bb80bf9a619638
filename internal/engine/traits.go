package engine

import (
	"math"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
)

// SessionSnapshot averages each trait across the session's analyzed USER
// messages, clamped and rounded. A session with no analyzed USER messages
// yields the zero vector.
func SessionSnapshot(messages []*chat.Message) analysis.TraitVector {
	var sums analysis.TraitVector
	count := 0
	for _, m := range messages {
		if m.Role != chat.RoleUser || m.AnalyzedAt == nil {
			continue
		}
		t := m.Traits.Data()
		for _, name := range analysis.TraitNames {
			val, _ := t.Get(name)
			if val < 0 || val > 100 {
				val = 0
			}
			sums.Add(name, val)
		}
		count++
	}
	if count == 0 {
		return analysis.TraitVector{}
	}
	var out analysis.TraitVector
	for _, name := range analysis.TraitNames {
		sum, _ := sums.Get(name)
		out.Set(name, math.Round(analysis.ClampScore(sum/float64(count))))
	}
	return out
}

// Deltas is element-wise current minus previous; with no previous long-term
// score the session snapshot is the delta verbatim.
func Deltas(current analysis.TraitVector, previous *analysis.TraitVector) analysis.TraitVector {
	if previous == nil {
		return current
	}
	return current.Sub(*previous)
}

// UpdateLongTerm folds the session snapshot into the long-term score:
// round(clamp(current*alpha + previous*(1-alpha))) per trait. The first
// session establishes the baseline with no smoothing.
func UpdateLongTerm(current analysis.TraitVector, previous *analysis.TraitVector, alpha float64) analysis.TraitVector {
	if previous == nil {
		return current
	}
	var out analysis.TraitVector
	for _, name := range analysis.TraitNames {
		cur, _ := current.Get(name)
		prev, _ := previous.Get(name)
		out.Set(name, math.Round(analysis.ClampScore(cur*alpha+prev*(1-alpha))))
	}
	return out
}

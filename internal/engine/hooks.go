package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
)

// EvaluateHooks returns the hooks that fire for this message, ordered by
// descending priority (code breaks ties so evaluation order is stable).
// lastFired holds the most recent trigger time per hook for this session;
// a hook is eligible when it never fired, has no cooldown, or its cooldown
// has fully elapsed. Recording the new trigger rows is the caller's job.
func EvaluateHooks(hooks []analysis.Hook, traits analysis.TraitVector, flags []string, lastFired map[uuid.UUID]time.Time, now time.Time) []analysis.Hook {
	ordered := make([]analysis.Hook, 0, len(hooks))
	for _, h := range hooks {
		if h.IsEnabled {
			ordered = append(ordered, h)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Code < ordered[j].Code
	})

	flagSet := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		flagSet[f] = struct{}{}
	}

	fired := []analysis.Hook{}
	for _, h := range ordered {
		if !conditionMatches(h.Condition.Data(), traits, flagSet) {
			continue
		}
		if !cooldownElapsed(h, lastFired, now) {
			continue
		}
		fired = append(fired, h)
	}
	return fired
}

func conditionMatches(cond analysis.HookCondition, traits analysis.TraitVector, flagSet map[string]struct{}) bool {
	for _, req := range cond.RequiredTraits {
		val, ok := traits.Get(req.Trait)
		if !ok {
			return false
		}
		switch req.Op {
		case analysis.OpGTE:
			if val < req.Value {
				return false
			}
		case analysis.OpLTE:
			if val > req.Value {
				return false
			}
		default:
			return false
		}
	}
	for _, f := range cond.RequiredFlags {
		if _, ok := flagSet[f]; !ok {
			return false
		}
	}
	return true
}

func cooldownElapsed(h analysis.Hook, lastFired map[uuid.UUID]time.Time, now time.Time) bool {
	if h.CooldownSeconds == 0 {
		return true
	}
	last, ok := lastFired[h.ID]
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(h.CooldownSeconds)*time.Second
}

package services

import (
	"fmt"
	"sort"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
)

// InsightsBuilder turns the accumulated session artifacts into the payload
// shown to the user after a session ends. Swappable so an LLM-backed builder
// can replace the deterministic one without touching the pipeline.
type InsightsBuilder interface {
	Build(session *types.Session, messages []*types.Message, gates []types.GateOutcome, history *types.TraitHistory) analysis.InsightPayload
}

type insightsBuilder struct{}

func NewInsightsBuilder() InsightsBuilder {
	return &insightsBuilder{}
}

var traitDisplayNames = map[string]string{
	analysis.TraitConfidence:      "confidence",
	analysis.TraitClarity:         "clarity",
	analysis.TraitHumor:           "humor",
	analysis.TraitTensionControl:  "tension control",
	analysis.TraitEmotionalWarmth: "emotional warmth",
	analysis.TraitDominance:       "dominance",
}

func (b *insightsBuilder) Build(session *types.Session, messages []*types.Message, gates []types.GateOutcome, history *types.TraitHistory) analysis.InsightPayload {
	payload := analysis.InsightPayload{
		SchemaVersion:  analysis.InsightSchemaVersion,
		Strengths:      []string{},
		GrowthAreas:    []string{},
		MoodTrajectory: []string{},
		GateSummary:    []analysis.GateDigest{},
	}
	if session != nil {
		payload.Outcome = session.Status
	}

	if history != nil {
		payload.SessionScore = history.SessionScore
		payload.TraitDeltas = history.Deltas.Data()
		traits := history.Traits.Data()
		payload.Strengths, payload.GrowthAreas = splitTraits(traits, history.Deltas.Data())
	}

	for _, g := range gates {
		payload.GateSummary = append(payload.GateSummary, analysis.GateDigest{
			GateKey:    g.GateKey,
			Passed:     g.Passed,
			ReasonCode: g.ReasonCode,
		})
	}

	payload.MoodTrajectory = moodTrajectory(messages)
	payload.Headline = headline(session, payload.SessionScore)
	return payload
}

// splitTraits names up to three strengths (strong or rising traits) and up to
// three growth areas (weak or falling ones).
func splitTraits(traits, deltas analysis.TraitVector) ([]string, []string) {
	type entry struct {
		name  string
		value float64
		delta float64
	}
	entries := make([]entry, 0, len(analysis.TraitNames))
	for _, name := range analysis.TraitNames {
		value, _ := traits.Get(name)
		delta, _ := deltas.Get(name)
		entries = append(entries, entry{name: name, value: value, delta: delta})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value+entries[i].delta > entries[j].value+entries[j].delta
	})

	strengths := []string{}
	for _, e := range entries {
		if len(strengths) == 3 {
			break
		}
		if e.value >= 70 || e.delta > 0 {
			strengths = append(strengths, traitDisplayNames[e.name])
		}
	}

	growth := []string{}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if len(growth) == 3 {
			break
		}
		if e.value < 50 || e.delta < 0 {
			growth = append(growth, traitDisplayNames[e.name])
		}
	}
	return strengths, growth
}

// moodTrajectory collapses the per-message mood sequence into its distinct
// transitions, in turn order.
func moodTrajectory(messages []*types.Message) []string {
	out := []string{}
	for _, m := range messages {
		if m == nil || m.MoodAfter == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == m.MoodAfter {
			continue
		}
		out = append(out, m.MoodAfter)
	}
	return out
}

func headline(session *types.Session, score float64) string {
	status := ""
	if session != nil {
		status = session.Status
	}
	switch status {
	case chat.SessionSuccess:
		return fmt.Sprintf("Strong session: overall score %.0f", score)
	case chat.SessionDisqualified:
		return "Session ended with a disqualification"
	case chat.SessionFail:
		return fmt.Sprintf("Rough session: overall score %.0f", score)
	default:
		return fmt.Sprintf("Session wrapped up: overall score %.0f", score)
	}
}

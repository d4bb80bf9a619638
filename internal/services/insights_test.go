package services

import (
	"strings"
	"testing"

	"gorm.io/datatypes"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/chat"
)

func moodMessage(mood string) *types.Message {
	return &types.Message{Role: chat.RoleUser, MoodAfter: mood}
}

func TestInsightsBuilderEmptyInputs(t *testing.T) {
	b := NewInsightsBuilder()
	payload := b.Build(nil, nil, nil, nil)

	if payload.SchemaVersion != analysis.InsightSchemaVersion {
		t.Fatalf("schema version = %d", payload.SchemaVersion)
	}
	if payload.Strengths == nil || payload.GrowthAreas == nil || payload.MoodTrajectory == nil || payload.GateSummary == nil {
		t.Fatalf("slices must be non-nil so the payload serializes as [] not null")
	}
	if payload.Headline == "" {
		t.Fatalf("expected a fallback headline")
	}
}

func TestInsightsBuilderSplitsTraits(t *testing.T) {
	b := NewInsightsBuilder()
	session := &types.Session{Status: chat.SessionSuccess}
	history := &types.TraitHistory{
		SessionScore: 78,
		Traits: datatypes.NewJSONType(analysis.TraitVector{
			Confidence:      82,
			Clarity:         75,
			Humor:           71,
			TensionControl:  55,
			EmotionalWarmth: 45,
			Dominance:       40,
		}),
		Deltas: datatypes.NewJSONType(analysis.TraitVector{
			Confidence: 4,
			Dominance:  -3,
		}),
	}

	payload := b.Build(session, nil, nil, history)

	if len(payload.Strengths) != 3 {
		t.Fatalf("strengths = %v", payload.Strengths)
	}
	if payload.Strengths[0] != "confidence" {
		t.Fatalf("highest trait should lead strengths, got %v", payload.Strengths)
	}
	// Dominance is both weak and falling; it must anchor the growth list.
	if len(payload.GrowthAreas) == 0 || payload.GrowthAreas[0] != "dominance" {
		t.Fatalf("growth areas = %v", payload.GrowthAreas)
	}
	for _, s := range payload.Strengths {
		for _, g := range payload.GrowthAreas {
			if s == g {
				t.Fatalf("trait %q listed as both strength and growth area", s)
			}
		}
	}
	if !strings.Contains(payload.Headline, "78") {
		t.Fatalf("headline should carry the session score: %q", payload.Headline)
	}
	if payload.Outcome != chat.SessionSuccess {
		t.Fatalf("outcome = %q", payload.Outcome)
	}
}

func TestInsightsBuilderMoodTrajectoryDedupes(t *testing.T) {
	b := NewInsightsBuilder()
	messages := []*types.Message{
		moodMessage(analysis.MoodNeutral),
		moodMessage(analysis.MoodNeutral),
		moodMessage(analysis.MoodWarm),
		moodMessage(analysis.MoodWarm),
		moodMessage(analysis.MoodFlow),
		moodMessage(""),
		moodMessage(analysis.MoodFlow),
	}

	payload := b.Build(nil, messages, nil, nil)

	want := []string{analysis.MoodNeutral, analysis.MoodWarm, analysis.MoodFlow}
	if len(payload.MoodTrajectory) != len(want) {
		t.Fatalf("trajectory = %v, want %v", payload.MoodTrajectory, want)
	}
	for i, m := range want {
		if payload.MoodTrajectory[i] != m {
			t.Fatalf("trajectory = %v, want %v", payload.MoodTrajectory, want)
		}
	}
}

func TestInsightsBuilderGateSummary(t *testing.T) {
	b := NewInsightsBuilder()
	gates := []types.GateOutcome{
		{GateKey: analysis.GateMinMessages, Passed: true},
		{GateKey: analysis.GateDisqualified, Passed: false, ReasonCode: analysis.ReasonDisqualifyingEnd},
	}
	session := &types.Session{Status: chat.SessionDisqualified}

	payload := b.Build(session, nil, gates, nil)

	if len(payload.GateSummary) != 2 {
		t.Fatalf("gate summary = %v", payload.GateSummary)
	}
	if payload.GateSummary[1].ReasonCode != analysis.ReasonDisqualifyingEnd {
		t.Fatalf("reason code lost in digest: %v", payload.GateSummary[1])
	}
	if !strings.Contains(payload.Headline, "disqualification") {
		t.Fatalf("headline = %q", payload.Headline)
	}
}

package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/veloria/rapport-backend/internal/domain/config"
)

func TestComputeBaseScoreBuckets(t *testing.T) {
	p := config.DefaultScoringProfile()

	cases := []struct {
		name string
		text string
		want float64
	}{
		{name: "empty", text: "", want: 10},
		{name: "very_short", text: "hey", want: 35},
		{name: "short", text: "hey there :)", want: 55},
		{name: "medium", text: strings.Repeat("a", 30), want: 68},
		{name: "long_low_edge", text: strings.Repeat("a", 40), want: 82},
		{name: "long_high_edge", text: strings.Repeat("a", 79), want: 82},
		{name: "very_long_penalized", text: strings.Repeat("a", 80), want: 70},
		{name: "way_too_long", text: strings.Repeat("a", 300), want: 70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeBaseScore(tc.text, p)
			if got != tc.want {
				t.Fatalf("ComputeBaseScore(len=%d)=%v, want %v", len(tc.text), got, tc.want)
			}
		})
	}
}

func TestScoreMessageDeterministic(t *testing.T) {
	p := config.DefaultScoringProfile()
	texts := []string{
		"",
		"hey",
		"maybe we could grab coffee?",
		"let's go somewhere warm, I love this place :)",
		strings.Repeat("so basically what happened was ", 10),
	}
	for _, text := range texts {
		a := ScoreMessage(text, p)
		b := ScoreMessage(text, p)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("ScoreMessage(%q) not deterministic: %+v vs %+v", text, a, b)
		}
	}
}

func TestScoreMessageSoftLanguageScenario(t *testing.T) {
	p := config.DefaultScoringProfile()
	text := "maybe we could grab coffee?"

	res := ScoreMessage(text, p)

	if !hasFlag(res.Flags, FlagUncertainty) {
		t.Fatalf("expected uncertainty flag, got %v", res.Flags)
	}
	// softLanguage -15 on confidence relative to base
	if want := res.BaseScore - 15; res.Traits.Confidence != want {
		t.Fatalf("confidence=%v, want base-15=%v", res.Traits.Confidence, want)
	}
	// questionMark +10 on tensionControl relative to its base
	if want := p.TraitBases.TensionControl + 10; res.Traits.TensionControl != want {
		t.Fatalf("tensionControl=%v, want base+10=%v", res.Traits.TensionControl, want)
	}
	// clarity untouched by either pattern
	if res.Traits.Clarity != res.BaseScore {
		t.Fatalf("clarity=%v, want base=%v", res.Traits.Clarity, res.BaseScore)
	}
}

func TestScoreMessageClampsAllTraits(t *testing.T) {
	p := config.DefaultScoringProfile()
	// Pile adjustments in both directions far past the range.
	p.PatternAdjustments = []config.PatternAdjustment{
		{Pattern: config.PatternQuestionMark, Trait: "confidence", Delta: -500},
		{Pattern: config.PatternQuestionMark, Trait: "humor", Delta: 500},
		{Pattern: config.PatternQuestionMark, Trait: "dominance", Delta: 500},
		{Pattern: config.PatternQuestionMark, Trait: "emotionalWarmth", Delta: -500},
	}
	res := ScoreMessage("really?", p)
	for name := range map[string]struct{}{"confidence": {}, "clarity": {}, "humor": {}, "tensionControl": {}, "emotionalWarmth": {}, "dominance": {}} {
		val, ok := res.Traits.Get(name)
		if !ok {
			t.Fatalf("unknown trait %s", name)
		}
		if val < 0 || val > 100 {
			t.Fatalf("trait %s=%v out of [0,100]", name, val)
		}
	}
	if res.Traits.Confidence != 0 || res.Traits.Humor != 100 {
		t.Fatalf("clamp boundaries wrong: confidence=%v humor=%v", res.Traits.Confidence, res.Traits.Humor)
	}
}

func TestScoreMessageUnknownPatternIgnored(t *testing.T) {
	p := config.DefaultScoringProfile()
	p.PatternAdjustments = append(p.PatternAdjustments, config.PatternAdjustment{
		Pattern: "sarcasmDetector", Trait: "humor", Delta: 40,
	})
	res := ScoreMessage("plain sentence with no patterns at all", p)
	if res.Traits.Humor != p.TraitBases.Humor {
		t.Fatalf("unknown pattern should not adjust: humor=%v", res.Traits.Humor)
	}
}

func TestDetectFlags(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{name: "low_effort", text: "ok", want: []string{FlagLowEffort}},
		{name: "uncertainty", text: "i guess that works for me", want: []string{FlagUncertainty}},
		{name: "overexplaining", text: strings.Repeat("and then I ", 20), want: []string{FlagOverexplaining}},
		{name: "clean", text: "sounds great, see you at eight", want: []string{}},
		{name: "empty_is_low_effort", text: "", want: []string{FlagLowEffort}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := detectFlags(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("detectFlags(%q)=%v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestLabelBands(t *testing.T) {
	cases := []struct {
		mean float64
		want string
	}{
		{mean: 92, want: LabelGreat},
		{mean: 85, want: LabelGreat},
		{mean: 84.9, want: LabelGood},
		{mean: 70, want: LabelGood},
		{mean: 62, want: LabelNeutral},
		{mean: 50, want: LabelNeutral},
		{mean: 30, want: LabelWeak},
		{mean: 29.9, want: LabelCringe},
		{mean: 0, want: LabelCringe},
	}
	for _, tc := range cases {
		if got := labelFor(tc.mean); got != tc.want {
			t.Fatalf("labelFor(%v)=%s, want %s", tc.mean, got, tc.want)
		}
	}
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

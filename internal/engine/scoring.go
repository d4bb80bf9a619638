package engine

import (
	"regexp"
	"strings"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/config"
)

// Qualitative labels over the mean of the six traits.
const (
	LabelGreat   = "great"
	LabelGood    = "good"
	LabelNeutral = "neutral"
	LabelWeak    = "weak"
	LabelCringe  = "cringe"
)

// Semantic flags are independent binary detectors, not configurable.
const (
	FlagUncertainty    = "uncertainty"
	FlagOverexplaining = "overexplaining"
	FlagLowEffort      = "low-effort"
)

const overexplainLength = 180

// ScoreResult is the deterministic output of scoring one message under one
// profile. Reprocessing the same (text, profile) pair is bit-for-bit
// reproducible; there is no hidden state.
type ScoreResult struct {
	Traits    analysis.TraitVector `json:"traits"`
	BaseScore float64              `json:"base_score"`
	Label     string               `json:"label"`
	Flags     []string             `json:"flags"`
}

var (
	emojiRe = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE0F}]|:\)|:D|;\)|:P|<3`)
	softRe  = regexp.MustCompile(`(?i)\b(maybe|perhaps|i guess|sort of|kind of|possibly|i think)\b`)
	leadRe  = regexp.MustCompile(`(?i)\b(we should|let'?s|how about|you should|why don'?t we|come with me)\b`)
	warmRe  = regexp.MustCompile(`(?i)\b(love|sweet|glad|happy|appreciate|wonderful|lovely|care|cozy)\b`)
)

// Pattern matchers are fixed; profiles only configure which trait each
// pattern adjusts and by how much.
var patternMatchers = map[string]func(string) bool{
	config.PatternQuestionMark:    func(s string) bool { return strings.Contains(s, "?") },
	config.PatternEmoji:           emojiRe.MatchString,
	config.PatternSoftLanguage:    softRe.MatchString,
	config.PatternLeadingLanguage: leadRe.MatchString,
	config.PatternWarmWords:       warmRe.MatchString,
}

// ComputeBaseScore buckets the message length into the profile's six base
// scores. The >=Long bucket scores below the Medium..Long bucket: past a
// point, longer is worse.
func ComputeBaseScore(text string, p config.ScoringProfile) float64 {
	n := len([]rune(text))
	t := p.LengthThresholds
	switch {
	case n == 0:
		return p.BaseScores.Empty
	case n < t.VeryShort:
		return p.BaseScores.VeryShort
	case n < t.Short:
		return p.BaseScores.Short
	case n < t.Medium:
		return p.BaseScores.Medium
	case n < t.Long:
		return p.BaseScores.Long
	default:
		return p.BaseScores.VeryLong
	}
}

// ScoreMessage maps (text, profile) to a trait vector, base score, label and
// flags. Confidence and clarity start at the base score; the other four
// traits start at the profile's bases; each matching pattern adjustment adds
// its signed delta to its trait; everything is clamped to [0,100].
func ScoreMessage(text string, p config.ScoringProfile) ScoreResult {
	base := ComputeBaseScore(text, p)
	traits := analysis.TraitVector{
		Confidence:      base,
		Clarity:         base,
		Humor:           p.TraitBases.Humor,
		TensionControl:  p.TraitBases.TensionControl,
		EmotionalWarmth: p.TraitBases.EmotionalWarmth,
		Dominance:       p.TraitBases.Dominance,
	}

	for _, adj := range p.PatternAdjustments {
		matcher, ok := patternMatchers[adj.Pattern]
		if !ok {
			continue
		}
		if matcher(text) {
			traits.Add(adj.Trait, adj.Delta)
		}
	}
	traits = traits.Clamp()

	return ScoreResult{
		Traits:    traits,
		BaseScore: base,
		Label:     labelFor(traits.Mean()),
		Flags:     detectFlags(text),
	}
}

func labelFor(mean float64) string {
	switch {
	case mean >= 85:
		return LabelGreat
	case mean >= 70:
		return LabelGood
	case mean >= 50:
		return LabelNeutral
	case mean >= 30:
		return LabelWeak
	default:
		return LabelCringe
	}
}

func detectFlags(text string) []string {
	flags := []string{}
	lower := strings.ToLower(text)
	n := len([]rune(text))
	if strings.Contains(lower, "maybe") || strings.Contains(lower, "i guess") {
		flags = append(flags, FlagUncertainty)
	}
	if n > overexplainLength {
		flags = append(flags, FlagOverexplaining)
	}
	if n < 5 {
		flags = append(flags, FlagLowEffort)
	}
	return flags
}

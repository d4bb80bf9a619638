package config

import "github.com/veloria/rapport-backend/internal/domain/analysis"

// DefaultDocument is the hard-coded fallback served whenever no
// configuration has ever been persisted or the store is unreachable. The
// pipeline must never block on missing configuration.
func DefaultDocument() Document {
	return Document{
		Version:  1,
		Scoring:  DefaultScoringConfig(),
		Dynamics: DefaultDynamicsConfig(),
		Gates:    DefaultGateConfig(),
		Mood:     DefaultMoodConfig(),
	}
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ActiveCode: "default",
		Profiles:   []ScoringProfile{DefaultScoringProfile()},
	}
}

func DefaultScoringProfile() ScoringProfile {
	return ScoringProfile{
		Code:    "default",
		Version: 1,
		Active:  true,
		TraitWeights: map[string]float64{
			analysis.TraitConfidence:      0.20,
			analysis.TraitClarity:         0.20,
			analysis.TraitHumor:           0.15,
			analysis.TraitTensionControl:  0.15,
			analysis.TraitEmotionalWarmth: 0.15,
			analysis.TraitDominance:       0.15,
		},
		LengthThresholds: LengthThresholds{VeryShort: 5, Short: 15, Medium: 40, Long: 80},
		BaseScores: BaseScores{
			Empty:     10,
			VeryShort: 35,
			Short:     55,
			Medium:    68,
			Long:      82,
			VeryLong:  70,
		},
		TraitBases: TraitBases{
			Humor:           50,
			TensionControl:  50,
			EmotionalWarmth: 50,
			Dominance:       50,
		},
		PatternAdjustments: []PatternAdjustment{
			{Pattern: PatternQuestionMark, Trait: analysis.TraitTensionControl, Delta: 10},
			{Pattern: PatternEmoji, Trait: analysis.TraitHumor, Delta: 8},
			{Pattern: PatternSoftLanguage, Trait: analysis.TraitConfidence, Delta: -15},
			{Pattern: PatternLeadingLanguage, Trait: analysis.TraitDominance, Delta: 12},
			{Pattern: PatternWarmWords, Trait: analysis.TraitEmotionalWarmth, Delta: 10},
		},
		FillerWords: []string{"um", "uh", "like", "basically", "literally", "honestly"},
		EMAAlpha:    0.3,
		RarityMultipliers: map[string]float64{
			"common": 1.0, "rare": 1.25, "epic": 1.5, "legendary": 2.0,
		},
		XPMultipliers: map[string]float64{
			"cringe": 0.25, "weak": 0.5, "neutral": 1.0, "good": 1.5, "great": 2.0,
		},
		CoinMultipliers: map[string]float64{
			"cringe": 0.0, "weak": 0.5, "neutral": 1.0, "good": 1.25, "great": 1.75,
		},
	}
}

func DefaultDynamicsConfig() DynamicsConfig {
	return DynamicsConfig{
		ActiveCode: "balanced",
		Profiles: []DynamicsProfile{
			{Code: "soft", Version: 1, Active: true, Intensity: "soft", Assertiveness: 0.25, EscalationRate: 0.1},
			{Code: "balanced", Version: 1, Active: true, Intensity: "balanced", Assertiveness: 0.5, EscalationRate: 0.25},
			{Code: "intense", Version: 1, Active: true, Intensity: "intense", Assertiveness: 0.8, EscalationRate: 0.5},
		},
	}
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		Version:          1,
		MinMessages:      3,
		SuccessThreshold: 70,
		FailFloor:        40,
	}
}

func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		Version:    1,
		FlowAbove:  5,
		WarmAbove:  2,
		ColdBelow:  -2,
		TenseBelow: -5,
	}
}

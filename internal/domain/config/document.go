package config

// Pattern keys with fixed, non-configurable matchers in the scoring engine.
// Profiles may reference a subset; unknown keys are ignored with a warning.
const (
	PatternQuestionMark    = "questionMark"
	PatternEmoji           = "emoji"
	PatternSoftLanguage    = "softLanguage"
	PatternLeadingLanguage = "leadingLanguage"
	PatternWarmWords       = "warmWords"
)

// LengthThresholds split message length (in characters) into the six base
// score buckets: empty, <VeryShort, <Short, <Medium, <Long, >=Long.
type LengthThresholds struct {
	VeryShort int `json:"very_short"`
	Short     int `json:"short"`
	Medium    int `json:"medium"`
	Long      int `json:"long"`
}

// BaseScores are the base scores per length bucket. VeryLong is deliberately
// below Long: rambling past the long bucket is penalized.
type BaseScores struct {
	Empty     float64 `json:"empty"`
	VeryShort float64 `json:"very_short"`
	Short     float64 `json:"short"`
	Medium    float64 `json:"medium"`
	Long      float64 `json:"long"`
	VeryLong  float64 `json:"very_long"`
}

// TraitBases seed the four traits that do not start from the base score.
type TraitBases struct {
	Humor           float64 `json:"humor"`
	TensionControl  float64 `json:"tension_control"`
	EmotionalWarmth float64 `json:"emotional_warmth"`
	Dominance       float64 `json:"dominance"`
}

// PatternAdjustment adds a signed delta to one trait when the named pattern
// matches the message text.
type PatternAdjustment struct {
	Pattern string  `json:"pattern"`
	Trait   string  `json:"trait"`
	Delta   float64 `json:"delta"`
}

// ScoringProfile parameterizes the scoring engine. Immutable per version:
// the pipeline never edits a profile in place, it is superseded by replacing
// the active entry through a config patch.
type ScoringProfile struct {
	Code    string `json:"code"`
	Version int    `json:"version"`
	Active  bool   `json:"active"`

	TraitWeights       map[string]float64  `json:"trait_weights"`
	LengthThresholds   LengthThresholds    `json:"length_thresholds"`
	BaseScores         BaseScores          `json:"base_scores"`
	TraitBases         TraitBases          `json:"trait_bases"`
	PatternAdjustments []PatternAdjustment `json:"pattern_adjustments"`
	FillerWords        []string            `json:"filler_words"`
	EMAAlpha           float64             `json:"ema_alpha"`

	RarityMultipliers map[string]float64 `json:"rarity_multipliers,omitempty"`
	XPMultipliers     map[string]float64 `json:"xp_multipliers,omitempty"`
	CoinMultipliers   map[string]float64 `json:"coin_multipliers,omitempty"`
}

type ScoringConfig struct {
	ActiveCode string           `json:"active_code"`
	Profiles   []ScoringProfile `json:"profiles"`
}

func (c ScoringConfig) Active() (ScoringProfile, bool) {
	for _, p := range c.Profiles {
		if p.Code == c.ActiveCode && p.Active {
			return p, true
		}
	}
	for _, p := range c.Profiles {
		if p.Active {
			return p, true
		}
	}
	return ScoringProfile{}, false
}

// DynamicsProfile selects persona behavior intensity for the simulated
// partner. The analysis pipeline only reads it for reporting; the chat
// runtime (external) is its real consumer.
type DynamicsProfile struct {
	Code           string  `json:"code"`
	Version        int     `json:"version"`
	Active         bool    `json:"active"`
	Intensity      string  `json:"intensity"`
	Assertiveness  float64 `json:"assertiveness"`
	EscalationRate float64 `json:"escalation_rate"`
}

type DynamicsConfig struct {
	ActiveCode string            `json:"active_code"`
	Profiles   []DynamicsProfile `json:"profiles"`
}

func (c DynamicsConfig) Active() (DynamicsProfile, bool) {
	for _, p := range c.Profiles {
		if p.Code == c.ActiveCode && p.Active {
			return p, true
		}
	}
	for _, p := range c.Profiles {
		if p.Active {
			return p, true
		}
	}
	return DynamicsProfile{}, false
}

// GateConfig holds the configurable gate thresholds. The objective-progress
// target is intentionally not here; see the gate engine.
type GateConfig struct {
	Version          int     `json:"version"`
	MinMessages      int     `json:"min_messages"`
	SuccessThreshold float64 `json:"success_threshold"`
	FailFloor        float64 `json:"fail_floor"`
}

// MoodConfig holds the evidence-net thresholds for the mood state machine.
// The open interval (ColdBelow, WarmAbove] is the dead zone where the
// previous mood state is retained.
type MoodConfig struct {
	Version    int     `json:"version"`
	FlowAbove  float64 `json:"flow_above"`
	WarmAbove  float64 `json:"warm_above"`
	ColdBelow  float64 `json:"cold_below"`
	TenseBelow float64 `json:"tense_below"`
}

// Document is the single versioned configuration document backing the
// provider. Version increments on every accepted patch.
type Document struct {
	Version  int            `json:"version"`
	Scoring  ScoringConfig  `json:"scoring"`
	Dynamics DynamicsConfig `json:"dynamics"`
	Gates    GateConfig     `json:"gates"`
	Mood     MoodConfig     `json:"mood"`
}

// Patch is a field-wise partial update. Nil sections are left untouched;
// Scoring and Dynamics replace their whole section (profile lists are not
// merged element-wise), Gates and Mood merge per field.
type Patch struct {
	Scoring  *ScoringConfig  `json:"scoring,omitempty"`
	Dynamics *DynamicsConfig `json:"dynamics,omitempty"`
	Gates    *GatePatch      `json:"gates,omitempty"`
	Mood     *MoodPatch      `json:"mood,omitempty"`
}

type GatePatch struct {
	MinMessages      *int     `json:"min_messages,omitempty"`
	SuccessThreshold *float64 `json:"success_threshold,omitempty"`
	FailFloor        *float64 `json:"fail_floor,omitempty"`
}

type MoodPatch struct {
	FlowAbove  *float64 `json:"flow_above,omitempty"`
	WarmAbove  *float64 `json:"warm_above,omitempty"`
	ColdBelow  *float64 `json:"cold_below,omitempty"`
	TenseBelow *float64 `json:"tense_below,omitempty"`
}

// Merge applies a patch onto the document and returns the result. The
// version bump happens at persist time, not here.
func (d Document) Merge(p Patch) Document {
	out := d
	if p.Scoring != nil {
		out.Scoring = *p.Scoring
	}
	if p.Dynamics != nil {
		out.Dynamics = *p.Dynamics
	}
	if p.Gates != nil {
		if p.Gates.MinMessages != nil {
			out.Gates.MinMessages = *p.Gates.MinMessages
		}
		if p.Gates.SuccessThreshold != nil {
			out.Gates.SuccessThreshold = *p.Gates.SuccessThreshold
		}
		if p.Gates.FailFloor != nil {
			out.Gates.FailFloor = *p.Gates.FailFloor
		}
	}
	if p.Mood != nil {
		if p.Mood.FlowAbove != nil {
			out.Mood.FlowAbove = *p.Mood.FlowAbove
		}
		if p.Mood.WarmAbove != nil {
			out.Mood.WarmAbove = *p.Mood.WarmAbove
		}
		if p.Mood.ColdBelow != nil {
			out.Mood.ColdBelow = *p.Mood.ColdBelow
		}
		if p.Mood.TenseBelow != nil {
			out.Mood.TenseBelow = *p.Mood.TenseBelow
		}
	}
	return out
}

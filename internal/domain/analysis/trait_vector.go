package analysis

import "math"

// Canonical trait names, used by scoring pattern adjustments and hook conditions.
const (
	TraitConfidence      = "confidence"
	TraitClarity         = "clarity"
	TraitHumor           = "humor"
	TraitTensionControl  = "tensionControl"
	TraitEmotionalWarmth = "emotionalWarmth"
	TraitDominance       = "dominance"
)

var TraitNames = []string{
	TraitConfidence,
	TraitClarity,
	TraitHumor,
	TraitTensionControl,
	TraitEmotionalWarmth,
	TraitDominance,
}

// TraitVector is the six-axis snapshot produced for every scored message and
// rolled up per session and per user. Values are always held in [0,100].
type TraitVector struct {
	Confidence      float64 `json:"confidence"`
	Clarity         float64 `json:"clarity"`
	Humor           float64 `json:"humor"`
	TensionControl  float64 `json:"tension_control"`
	EmotionalWarmth float64 `json:"emotional_warmth"`
	Dominance       float64 `json:"dominance"`
}

func (v TraitVector) Get(name string) (float64, bool) {
	switch name {
	case TraitConfidence:
		return v.Confidence, true
	case TraitClarity:
		return v.Clarity, true
	case TraitHumor:
		return v.Humor, true
	case TraitTensionControl:
		return v.TensionControl, true
	case TraitEmotionalWarmth:
		return v.EmotionalWarmth, true
	case TraitDominance:
		return v.Dominance, true
	}
	return 0, false
}

func (v *TraitVector) Set(name string, val float64) {
	switch name {
	case TraitConfidence:
		v.Confidence = val
	case TraitClarity:
		v.Clarity = val
	case TraitHumor:
		v.Humor = val
	case TraitTensionControl:
		v.TensionControl = val
	case TraitEmotionalWarmth:
		v.EmotionalWarmth = val
	case TraitDominance:
		v.Dominance = val
	}
}

func (v *TraitVector) Add(name string, delta float64) {
	cur, ok := v.Get(name)
	if !ok {
		return
	}
	v.Set(name, cur+delta)
}

// Clamp forces every trait into [0,100]. Applied after any adjustment.
func (v TraitVector) Clamp() TraitVector {
	for _, name := range TraitNames {
		cur, _ := v.Get(name)
		v.Set(name, ClampScore(cur))
	}
	return v
}

func (v TraitVector) Round() TraitVector {
	for _, name := range TraitNames {
		cur, _ := v.Get(name)
		v.Set(name, math.Round(cur))
	}
	return v
}

func (v TraitVector) Mean() float64 {
	sum := 0.0
	for _, name := range TraitNames {
		cur, _ := v.Get(name)
		sum += cur
	}
	return sum / float64(len(TraitNames))
}

// Sub returns v - other element-wise. Deltas are not clamped; a drop is a
// legitimate negative number.
func (v TraitVector) Sub(other TraitVector) TraitVector {
	var out TraitVector
	for _, name := range TraitNames {
		a, _ := v.Get(name)
		b, _ := other.Get(name)
		out.Set(name, a-b)
	}
	return out
}

func ClampScore(val float64) float64 {
	if val < 0 {
		return 0
	}
	if val > 100 {
		return 100
	}
	return val
}

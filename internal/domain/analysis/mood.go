package analysis

// Discrete session mood states. NEUTRAL is the default absent any prior
// state; there is no explicit initial or terminal state.
const (
	MoodCold    = "COLD"
	MoodNeutral = "NEUTRAL"
	MoodWarm    = "WARM"
	MoodTense   = "TENSE"
	MoodFlow    = "FLOW"
)

func IsValidMood(state string) bool {
	switch state {
	case MoodCold, MoodNeutral, MoodWarm, MoodTense, MoodFlow:
		return true
	}
	return false
}

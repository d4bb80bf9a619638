package engine

import (
	"testing"

	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/domain/config"
)

func TestNextMood(t *testing.T) {
	cfg := config.DefaultMoodConfig()

	cases := []struct {
		name     string
		positive float64
		negative float64
		prev     string
		want     string
	}{
		{name: "flow", positive: 8, negative: 1, prev: analysis.MoodNeutral, want: analysis.MoodFlow},
		{name: "tense", positive: 0, negative: 6, prev: analysis.MoodWarm, want: analysis.MoodTense},
		{name: "warm", positive: 4, negative: 1, prev: analysis.MoodNeutral, want: analysis.MoodWarm},
		{name: "cold", positive: 0, negative: 3, prev: analysis.MoodNeutral, want: analysis.MoodCold},
		// Dead zone: previous state is retained, never reset to NEUTRAL.
		{name: "dead_zone_sticky_warm", positive: 3, negative: 2, prev: analysis.MoodWarm, want: analysis.MoodWarm},
		{name: "dead_zone_sticky_cold", positive: 1, negative: 2, prev: analysis.MoodCold, want: analysis.MoodCold},
		{name: "dead_zone_sticky_flow", positive: 2, negative: 0, prev: analysis.MoodFlow, want: analysis.MoodFlow},
		// Boundaries are exclusive: net exactly at a threshold stays in the zone below it.
		{name: "net_exactly_flow_threshold", positive: 5, negative: 0, prev: analysis.MoodNeutral, want: analysis.MoodWarm},
		{name: "net_exactly_warm_threshold", positive: 2, negative: 0, prev: analysis.MoodTense, want: analysis.MoodTense},
		{name: "net_exactly_cold_threshold", positive: 0, negative: 2, prev: analysis.MoodWarm, want: analysis.MoodWarm},
		{name: "net_exactly_tense_threshold", positive: 0, negative: 5, prev: analysis.MoodNeutral, want: analysis.MoodCold},
		// Absent or garbage prior state defaults to NEUTRAL inside the dead zone.
		{name: "no_prior_state", positive: 0, negative: 0, prev: "", want: analysis.MoodNeutral},
		{name: "invalid_prior_state", positive: 1, negative: 0, prev: "SPICY", want: analysis.MoodNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := analysis.EvidenceMap{
				analysis.ClusterPositive: tc.positive,
				analysis.ClusterNegative: tc.negative,
			}
			got := NextMood(ev, tc.prev, cfg)
			if got != tc.want {
				t.Fatalf("NextMood(net=%v, prev=%s)=%s, want %s", ev.Net(), tc.prev, got, tc.want)
			}
		})
	}
}

func TestNextMoodIgnoresOtherClusters(t *testing.T) {
	cfg := config.DefaultMoodConfig()
	ev := analysis.EvidenceMap{
		analysis.ClusterDefault:  50,
		analysis.ClusterPositive: 3,
	}
	if got := NextMood(ev, analysis.MoodNeutral, cfg); got != analysis.MoodWarm {
		t.Fatalf("default cluster must not feed mood: got %s", got)
	}
}

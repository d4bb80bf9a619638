package analysis

// Evidence cluster keys consumed by the mood state machine.
const (
	ClusterDefault  = "default"
	ClusterPositive = "positive"
	ClusterNegative = "negative"
)

// EvidenceMap is the per-session running total of weighted hook firings,
// keyed by cluster. It is cumulative for the life of a session and is never
// reset between messages.
type EvidenceMap map[string]float64

func (m EvidenceMap) Clone() EvidenceMap {
	out := make(EvidenceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Net is positive minus negative cluster weight.
func (m EvidenceMap) Net() float64 {
	return m[ClusterPositive] - m[ClusterNegative]
}

package engine

import "github.com/veloria/rapport-backend/internal/domain/analysis"

// AccumulateEvidence folds this turn's fired hooks into the session's
// running per-cluster totals and returns the updated map. The input map is
// not mutated; the session row is the source of truth between turns.
//
// Weights are taken as stored. The hook column defaults to 1 at the DB
// layer, so a zero here is a configured zero: the hook fires and is
// recorded in hook_trigger, but contributes no evidence.
func AccumulateEvidence(evidence analysis.EvidenceMap, fired []analysis.Hook) analysis.EvidenceMap {
	out := evidence.Clone()
	if out == nil {
		out = analysis.EvidenceMap{}
	}
	for _, h := range fired {
		cluster := h.EvidenceCluster
		if cluster == "" {
			cluster = analysis.ClusterDefault
		}
		out[cluster] += h.EvidenceWeight
	}
	return out
}

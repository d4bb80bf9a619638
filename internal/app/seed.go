package app

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/veloria/rapport-backend/internal/data/repos"
	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/domain/analysis"
	"github.com/veloria/rapport-backend/internal/engine"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

// seedHooks installs the default hook set on an empty hook table. Operators
// manage hooks in the database after that; the seed never overwrites.
func seedHooks(ctx context.Context, log *logger.Logger, hooks repos.HookRepo) error {
	dbc := dbctx.Context{Ctx: ctx}
	count, err := hooks.Count(dbc)
	if err != nil {
		return fmt.Errorf("count hooks: %w", err)
	}
	if count > 0 {
		log.Debug("Hook table already populated, skipping seed", "count", count)
		return nil
	}
	log.Info("Seeding default hooks...")
	if _, err := hooks.Create(dbc, defaultHooks()); err != nil {
		return fmt.Errorf("seed hooks: %w", err)
	}
	return nil
}

func defaultHooks() []*types.Hook {
	traitGTE := func(trait string, value float64) analysis.HookCondition {
		return analysis.HookCondition{
			RequiredTraits: []analysis.TraitRequirement{{Trait: trait, Op: analysis.OpGTE, Value: value}},
		}
	}
	flagged := func(flags ...string) analysis.HookCondition {
		return analysis.HookCondition{RequiredFlags: flags}
	}
	return []*types.Hook{
		{
			Code:            "confident-streak",
			Title:           "Confident streak",
			IsEnabled:       true,
			Priority:        10,
			CooldownSeconds: 60,
			Condition:       datatypes.NewJSONType(traitGTE(analysis.TraitConfidence, 70)),
			EvidenceCluster: analysis.ClusterPositive,
			EvidenceWeight:  1.5,
		},
		{
			Code:            "warm-exchange",
			Title:           "Warm exchange",
			IsEnabled:       true,
			Priority:        5,
			CooldownSeconds: 120,
			Condition:       datatypes.NewJSONType(traitGTE(analysis.TraitEmotionalWarmth, 65)),
			EvidenceCluster: analysis.ClusterPositive,
			EvidenceWeight:  1,
		},
		{
			Code:            "sharp-humor",
			Title:           "Sharp humor",
			IsEnabled:       true,
			Priority:        5,
			CooldownSeconds: 90,
			Condition:       datatypes.NewJSONType(traitGTE(analysis.TraitHumor, 70)),
			EvidenceCluster: analysis.ClusterPositive,
			EvidenceWeight:  1.25,
		},
		{
			Code:            "uncertainty-spiral",
			Title:           "Uncertainty spiral",
			IsEnabled:       true,
			Priority:        10,
			CooldownSeconds: 60,
			Condition:       datatypes.NewJSONType(flagged(engine.FlagUncertainty)),
			EvidenceCluster: analysis.ClusterNegative,
			EvidenceWeight:  1.5,
		},
		{
			Code:            "overexplainer",
			Title:           "Overexplainer",
			IsEnabled:       true,
			Priority:        5,
			CooldownSeconds: 120,
			Condition:       datatypes.NewJSONType(flagged(engine.FlagOverexplaining)),
			EvidenceCluster: analysis.ClusterNegative,
			EvidenceWeight:  1,
		},
		{
			Code:            "low-effort-drift",
			Title:           "Low effort drift",
			IsEnabled:       true,
			Priority:        5,
			CooldownSeconds: 90,
			Condition:       datatypes.NewJSONType(flagged(engine.FlagLowEffort)),
			EvidenceCluster: analysis.ClusterNegative,
			EvidenceWeight:  1.25,
		},
	}
}

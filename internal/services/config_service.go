package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/veloria/rapport-backend/internal/data/repos"
	"github.com/veloria/rapport-backend/internal/domain/config"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

// ConfigService serves the versioned configuration document. Reads are cached
// with a short TTL and deduplicated through singleflight so a poll storm from
// the workers turns into one DB query. A job takes one Snapshot at start and
// uses it for its whole run; a patch landing mid-job affects later jobs only.
type ConfigService interface {
	Snapshot(ctx context.Context) (config.Document, error)
	Patch(dbc dbctx.Context, p config.Patch) (config.Document, error)
	Invalidate()
}

type configService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.AppConfigRepo

	ttl time.Duration

	mu       sync.RWMutex
	cached   *config.Document
	cachedAt time.Time

	group singleflight.Group
}

func NewConfigService(db *gorm.DB, baseLog *logger.Logger, repo repos.AppConfigRepo, ttl time.Duration) ConfigService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &configService{
		db:   db,
		log:  baseLog.With("service", "ConfigService"),
		repo: repo,
		ttl:  ttl,
	}
}

func (s *configService) Snapshot(ctx context.Context) (config.Document, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.cachedAt) < s.ttl {
		doc := *s.cached
		s.mu.RUnlock()
		return doc, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("config", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return config.Document{}, err
	}
	return v.(config.Document), nil
}

// load reads the document row, seeding the defaults on first run so the
// pipeline always has something to score with.
func (s *configService) load(ctx context.Context) (config.Document, error) {
	row, err := s.repo.GetByCode(dbctx.Context{Ctx: ctx}, config.DefaultDocumentCode)
	if err != nil {
		return config.Document{}, fmt.Errorf("load config: %w", err)
	}
	var doc config.Document
	if row == nil {
		doc = config.DefaultDocument()
		if err := s.repo.Upsert(dbctx.Context{Ctx: ctx}, config.FromDocument(config.DefaultDocumentCode, doc)); err != nil {
			return config.Document{}, fmt.Errorf("seed default config: %w", err)
		}
		s.log.Info("Seeded default configuration document", "version", doc.Version)
	} else {
		doc = row.Document()
	}

	s.mu.Lock()
	s.cached = &doc
	s.cachedAt = time.Now()
	s.mu.Unlock()
	return doc, nil
}

func (s *configService) Patch(dbc dbctx.Context, p config.Patch) (config.Document, error) {
	current, err := s.Snapshot(dbc.Ctx)
	if err != nil {
		return config.Document{}, err
	}

	merged := current.Merge(p)
	if err := validateDocument(merged); err != nil {
		return config.Document{}, err
	}
	for _, w := range documentWarnings(merged) {
		s.log.Warn("Config patch accepted with warning", "warning", w)
	}

	merged.Version = current.Version + 1
	if err := s.repo.Upsert(dbc, config.FromDocument(config.DefaultDocumentCode, merged)); err != nil {
		return config.Document{}, fmt.Errorf("persist config: %w", err)
	}
	s.log.Info("Configuration patched", "version", merged.Version)

	s.mu.Lock()
	s.cached = &merged
	s.cachedAt = time.Now()
	s.mu.Unlock()
	return merged, nil
}

func (s *configService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// validateDocument rejects patches that would leave the pipeline unable to
// score. Softer inconsistencies are warnings, not errors.
func validateDocument(d config.Document) error {
	if d.Gates.MinMessages < 0 {
		return fmt.Errorf("gates.min_messages must be >= 0, got %d", d.Gates.MinMessages)
	}
	profile, ok := d.Scoring.Active()
	if !ok {
		return fmt.Errorf("scoring has no active profile")
	}
	if profile.EMAAlpha < 0 || profile.EMAAlpha > 1 {
		return fmt.Errorf("scoring profile %q ema_alpha must be in [0,1], got %v", profile.Code, profile.EMAAlpha)
	}
	t := profile.LengthThresholds
	if !(0 < t.VeryShort && t.VeryShort < t.Short && t.Short < t.Medium && t.Medium < t.Long) {
		return fmt.Errorf("scoring profile %q length thresholds must be strictly increasing", profile.Code)
	}
	return nil
}

// Trait weights are advisory: an off-balance sum skews scores but cannot
// break scoring, so it warns instead of rejecting the patch.
const weightSumTolerance = 0.05

func documentWarnings(d config.Document) []string {
	var out []string
	if d.Gates.FailFloor >= d.Gates.SuccessThreshold {
		out = append(out, fmt.Sprintf("gates.fail_floor %v >= gates.success_threshold %v", d.Gates.FailFloor, d.Gates.SuccessThreshold))
	}
	if d.Mood.WarmAbove >= d.Mood.FlowAbove {
		out = append(out, fmt.Sprintf("mood.warm_above %v >= mood.flow_above %v leaves WARM unreachable", d.Mood.WarmAbove, d.Mood.FlowAbove))
	}
	if d.Mood.ColdBelow <= d.Mood.TenseBelow {
		out = append(out, fmt.Sprintf("mood.cold_below %v <= mood.tense_below %v leaves COLD unreachable", d.Mood.ColdBelow, d.Mood.TenseBelow))
	}
	known := map[string]bool{
		config.PatternQuestionMark:    true,
		config.PatternEmoji:           true,
		config.PatternSoftLanguage:    true,
		config.PatternLeadingLanguage: true,
		config.PatternWarmWords:       true,
	}
	if profile, ok := d.Scoring.Active(); ok {
		var sum float64
		for _, w := range profile.TraitWeights {
			sum += w
		}
		if math.Abs(sum-1.0) > weightSumTolerance {
			out = append(out, fmt.Sprintf("scoring profile %q trait weights sum to %v, expected 1.0 within %v", profile.Code, sum, weightSumTolerance))
		}
		for _, adj := range profile.PatternAdjustments {
			if !known[adj.Pattern] {
				out = append(out, fmt.Sprintf("scoring profile %q references unknown pattern %q", profile.Code, adj.Pattern))
			}
		}
	}
	return out
}

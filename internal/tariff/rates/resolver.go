// Package rates resolves MFN and preferential duty rates for a tariff code
// through an ordered cascade of tiers, each with a fixed confidence ceiling.
package rates

import (
	"context"
	"fmt"
	"time"

	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
	"tariff-workers/internal/store"
)

const defaultTierTimeout = 2 * time.Second

// Outcome of one tier attempt, reported to an Observer.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Observer receives one call per attempted tier.
type Observer func(tier models.SourceTier, outcome string, elapsed time.Duration)

// Resolver runs the cascade. It keeps no per-request state.
type Resolver struct {
	tiers       []TierResolver
	tierTimeout time.Duration
	concurrency int
	observer    Observer
	logger      logger.Logger
}

type Option func(*Resolver)

// WithTierTimeout bounds each tier independently so a slow tier degrades to
// the next one.
func WithTierTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.tierTimeout = d
		}
	}
}

// WithConcurrency bounds ResolveBatch.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.logger = log
		}
	}
}

func NewResolver(tiers []TierResolver, opts ...Option) *Resolver {
	r := &Resolver{
		tiers:       tiers,
		tierTimeout: defaultTierTimeout,
		concurrency: 4,
		logger:      logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve stops at the first tier with a record. A tier error counts as a
// miss; only when every attempted tier errored does Resolve fail with
// RESOLUTION_UNAVAILABLE. Running out of tiers is the NotFound resolution.
func (r *Resolver) Resolve(ctx context.Context, code string) (*models.RateResolution, error) {
	normalized, err := store.NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	var (
		attempted int
		failures  []string
	)
	for _, t := range r.tiers {
		key, ok := t.Key(normalized)
		if !ok {
			continue
		}
		attempted++

		rec, elapsed, err := r.try(ctx, t, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.observe(t.Tier(), OutcomeError, elapsed)
			failures = append(failures, fmt.Sprintf("%s: %v", t.Tier(), err))
			r.logger.Warn("rate tier failed, falling through", map[string]interface{}{
				"tier":  string(t.Tier()),
				"code":  key,
				"error": err,
			})
			continue
		}
		if rec == nil {
			r.observe(t.Tier(), OutcomeMiss, elapsed)
			continue
		}

		r.observe(t.Tier(), OutcomeHit, elapsed)
		return found(normalized, key, t, rec, failures), nil
	}

	if attempted > 0 && len(failures) == attempted {
		return nil, errors.NewResolutionUnavailableError(normalized, attempted).
			WithMetadata("tierFailures", failures)
	}

	return &models.RateResolution{
		RequestedCode:     normalized,
		Tier:              models.TierNotFound,
		ConfidenceCeiling: models.TierNotFound.ConfidenceCeiling(),
		Label:             models.ConfidenceLabel(0),
		TierFailures:      failures,
		Reason:            fmt.Sprintf("no rate found for %s at any tier; needs customs-broker research", normalized),
	}, nil
}

func (r *Resolver) try(ctx context.Context, t TierResolver, key string) (*models.TariffCodeRecord, time.Duration, error) {
	tctx, cancel := context.WithTimeout(ctx, r.tierTimeout)
	defer cancel()

	start := time.Now()
	rec, err := t.TryResolve(tctx, key)
	return rec, time.Since(start), err
}

func (r *Resolver) observe(tier models.SourceTier, outcome string, elapsed time.Duration) {
	if r.observer != nil {
		r.observer(tier, outcome, elapsed)
	}
}

func found(requested, key string, t TierResolver, rec *models.TariffCodeRecord, failures []string) *models.RateResolution {
	out := *rec
	out.SourceTier = t.Tier()
	out.RecordConfidenceCeiling = t.Ceiling()

	reason := fmt.Sprintf("matched %s at %s tier", key, t.Tier())
	if t.Tier() == models.TierChapter {
		reason += "; rate is a chapter-level estimate"
	}

	return &models.RateResolution{
		RequestedCode:     requested,
		MatchedCode:       key,
		Tier:              t.Tier(),
		MFNRate:           out.MFNRate,
		PreferentialRate:  out.PreferentialRate,
		ConfidenceCeiling: t.Ceiling(),
		Label:             models.ConfidenceLabel(t.Ceiling()),
		Record:            &out,
		TierFailures:      failures,
		Reason:            reason,
	}
}

package rates

import (
	"context"
	"errors"

	"tariff-workers/internal/models"
	"tariff-workers/internal/store"
)

// TierResolver is one level of the rate cascade with a fixed confidence ceiling.
type TierResolver interface {
	Tier() models.SourceTier
	Ceiling() int
	// Key is the code this tier looks up for a normalized code. ok is false
	// when the tier does not apply, e.g. a heading tier for a 4-digit code.
	Key(code string) (key string, ok bool)
	// TryResolve returns nil, nil on a legitimate miss.
	TryResolve(ctx context.Context, key string) (*models.TariffCodeRecord, error)
}

type lookupTier struct {
	tier   models.SourceTier
	prefix int // 0 means the full code
	lookup store.Lookup
}

// ExactTier looks up the full code verbatim.
func ExactTier(lookup store.Lookup) TierResolver {
	return &lookupTier{tier: models.TierExact, lookup: lookup}
}

// CategoryTier looks up the 6-digit subheading of a longer code.
func CategoryTier(lookup store.Lookup) TierResolver {
	return &lookupTier{tier: models.TierCategory, prefix: 6, lookup: lookup}
}

// HeadingTier looks up the 4-digit heading of a longer code.
func HeadingTier(lookup store.Lookup) TierResolver {
	return &lookupTier{tier: models.TierHeading, prefix: 4, lookup: lookup}
}

// ChapterTier looks up the 2-digit chapter of a longer code.
func ChapterTier(lookup store.Lookup) TierResolver {
	return &lookupTier{tier: models.TierChapter, prefix: 2, lookup: lookup}
}

// DefaultTiers is the exact, category, heading, chapter cascade against one store.
func DefaultTiers(lookup store.Lookup) []TierResolver {
	return []TierResolver{
		ExactTier(lookup),
		CategoryTier(lookup),
		HeadingTier(lookup),
		ChapterTier(lookup),
	}
}

func (t *lookupTier) Tier() models.SourceTier { return t.tier }

func (t *lookupTier) Ceiling() int { return t.tier.ConfidenceCeiling() }

func (t *lookupTier) Key(code string) (string, bool) {
	if t.prefix == 0 {
		return code, code != ""
	}
	if len(code) <= t.prefix {
		return "", false
	}
	return code[:t.prefix], true
}

func (t *lookupTier) TryResolve(ctx context.Context, key string) (*models.TariffCodeRecord, error) {
	rec, err := t.lookup.GetByCode(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

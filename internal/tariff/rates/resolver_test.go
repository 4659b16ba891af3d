package rates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
	"tariff-workers/internal/store"
)

func newSnapshot(t *testing.T) *store.MemoryStore {
	t.Helper()
	m, err := store.NewMemoryStore([]models.TariffCodeRecord{
		{Code: "854411", Description: "Winding wire of copper", Category: "electronics", MFNRate: 3.5},
		{Code: "8544", Description: "Insulated wire, cable", Category: "electronics", MFNRate: 2.6},
		{Code: "85", Description: "Electrical machinery and equipment", MFNRate: 3.2},
		{Code: "7408", Description: "Copper wire", Category: "metals", MFNRate: 3.0, PreferentialRate: 0},
	})
	require.NoError(t, err)
	return m
}

// fakeLookup fails or blocks for selected keys and counts calls.
type fakeLookup struct {
	inner store.Lookup
	fail  map[string]bool
	block map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeLookup) GetByCode(ctx context.Context, code string) (*models.TariffCodeRecord, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[code]++
	f.mu.Unlock()

	if f.block[code] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.fail[code] {
		return nil, apperrors.NewStoreUnavailableError("get_by_code", errors.New("connection refused"))
	}
	return f.inner.GetByCode(ctx, code)
}

func (f *fakeLookup) count(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

func TestResolve_Tiers(t *testing.T) {
	lookup := store.Chain{newSnapshot(t), store.NewChapterAverages(nil)}
	r := NewResolver(DefaultTiers(lookup), WithLogger(logger.NewTestLogger(t)))

	tests := []struct {
		name        string
		code        string
		wantTier    models.SourceTier
		wantMatched string
		wantCeiling int
		wantLabel   string
		wantMFN     float64
	}{
		{"exact", "8544.11", models.TierExact, "854411", 100, models.LabelVerified, 3.5},
		{"category parent", "8544.11.0010", models.TierCategory, "854411", 85, models.LabelCategory, 3.5},
		{"heading parent", "8544.99.00", models.TierHeading, "8544", 70, models.LabelHeading, 2.6},
		{"chapter only", "8599000000", models.TierChapter, "85", 50, models.LabelEstimated, 3.2},
		{"chapter average estimate", "6109.10.0010", models.TierChapter, "61", 50, models.LabelEstimated, 13.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tt.code)
			require.NoError(t, err)
			require.True(t, res.Found())
			assert.Equal(t, tt.wantTier, res.Tier)
			assert.Equal(t, tt.wantMatched, res.MatchedCode)
			assert.Equal(t, tt.wantCeiling, res.ConfidenceCeiling)
			assert.Equal(t, tt.wantLabel, res.Label)
			assert.Equal(t, tt.wantMFN, res.MFNRate)
			assert.Equal(t, tt.wantTier, res.Record.SourceTier)
			assert.Equal(t, tt.wantCeiling, res.Record.RecordConfidenceCeiling)
		})
	}
}

func TestResolve_ScenarioD(t *testing.T) {
	m, err := store.NewMemoryStore([]models.TariffCodeRecord{{Code: "39", Description: "Plastics", MFNRate: 5.3}})
	require.NoError(t, err)
	r := NewResolver(DefaultTiers(m))

	res, err := r.Resolve(context.Background(), "3926.90.9990")
	require.NoError(t, err)
	assert.Equal(t, models.TierChapter, res.Tier)
	assert.Equal(t, 50, res.ConfidenceCeiling)
	assert.Equal(t, "Estimated", res.Label)
	assert.Contains(t, res.Reason, "estimate")
}

func TestResolve_NotFound(t *testing.T) {
	r := NewResolver(DefaultTiers(newSnapshot(t)))

	res, err := r.Resolve(context.Background(), "9999.99.9999")
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, models.TierNotFound, res.Tier)
	assert.Zero(t, res.ConfidenceCeiling)
	assert.Equal(t, models.LabelNeedsResearch, res.Label)
	assert.Contains(t, res.Reason, "customs-broker research")
	assert.Empty(t, res.TierFailures)
}

func TestResolve_InvalidCode(t *testing.T) {
	r := NewResolver(DefaultTiers(newSnapshot(t)))

	_, err := r.Resolve(context.Background(), "x")
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestResolve_TierFailureFallsThrough(t *testing.T) {
	lookup := &fakeLookup{inner: newSnapshot(t), fail: map[string]bool{"8544110010": true, "854411": true}}
	r := NewResolver(DefaultTiers(lookup))

	res, err := r.Resolve(context.Background(), "8544110010")
	require.NoError(t, err)
	assert.Equal(t, models.TierHeading, res.Tier)
	assert.Len(t, res.TierFailures, 2)
}

func TestResolve_MissAfterPartialFailureIsNotFound(t *testing.T) {
	lookup := &fakeLookup{inner: newSnapshot(t), fail: map[string]bool{"9999999999": true}}
	r := NewResolver(DefaultTiers(lookup))

	res, err := r.Resolve(context.Background(), "9999999999")
	require.NoError(t, err)
	assert.Equal(t, models.TierNotFound, res.Tier)
	assert.Len(t, res.TierFailures, 1)
}

func TestResolve_AllTiersFailing(t *testing.T) {
	lookup := &fakeLookup{inner: newSnapshot(t), fail: map[string]bool{
		"85441100": true, "854411": true, "8544": true, "85": true,
	}}
	r := NewResolver(DefaultTiers(lookup))

	_, err := r.Resolve(context.Background(), "85441100")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeResolutionUnavailable))
	assert.False(t, apperrors.IsInvalidInput(err))
}

func TestResolve_SlowTierTimesOut(t *testing.T) {
	lookup := &fakeLookup{inner: newSnapshot(t), block: map[string]bool{"85441100": true}}

	var (
		mu       sync.Mutex
		outcomes []string
	)
	r := NewResolver(DefaultTiers(lookup),
		WithTierTimeout(20*time.Millisecond),
		WithObserver(func(tier models.SourceTier, outcome string, _ time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, string(tier)+":"+outcome)
		}),
	)

	res, err := r.Resolve(context.Background(), "85441100")
	require.NoError(t, err)
	assert.Equal(t, models.TierCategory, res.Tier)
	assert.Equal(t, []string{"exact:error", "category:hit"}, outcomes)
}

func TestResolve_CancelledRequest(t *testing.T) {
	r := NewResolver(DefaultTiers(&fakeLookup{inner: newSnapshot(t), block: map[string]bool{"854411": true}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "854411")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultTiers_CeilingsStrictlyDecrease(t *testing.T) {
	tiers := DefaultTiers(newSnapshot(t))
	want := []int{100, 85, 70, 50}
	for i, tier := range tiers {
		assert.Equal(t, want[i], tier.Ceiling())
		if i > 0 {
			assert.Less(t, tier.Ceiling(), tiers[i-1].Ceiling())
		}
	}
	assert.Less(t, models.TierNotFound.ConfidenceCeiling(), tiers[len(tiers)-1].Ceiling())
}

func TestTierKeys(t *testing.T) {
	tiers := DefaultTiers(nil)

	tests := []struct {
		code string
		want []string
	}{
		{"8544110010", []string{"8544110010", "854411", "8544", "85"}},
		{"854411", []string{"854411", "", "8544", "85"}},
		{"8544", []string{"8544", "", "", "85"}},
		{"85", []string{"85", "", "", ""}},
	}

	for _, tt := range tests {
		for i, tier := range tiers {
			key, ok := tier.Key(tt.code)
			assert.Equal(t, tt.want[i] != "", ok, "%s at %s", tt.code, tier.Tier())
			assert.Equal(t, tt.want[i], key)
		}
	}
}

package savings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		mfn, pref   float64
		volume      float64
		wantRate    float64
		wantAnnual  float64
		wantMonthly float64
		wantReason  string
	}{
		{name: "standard", mfn: 3.5, pref: 0, volume: 1_200_000, wantRate: 3.5, wantAnnual: 42_000, wantMonthly: 3_500},
		{name: "partial preference", mfn: 10, pref: 4, volume: 500_000, wantRate: 6, wantAnnual: 30_000, wantMonthly: 2_500},
		{name: "preferential above mfn", mfn: 2, pref: 5, volume: 100_000, wantReason: "no reduction"},
		{name: "zero volume", mfn: 5, pref: 0, volume: 0, wantRate: 5, wantReason: "not positive"},
		{name: "negative volume", mfn: 5, pref: 0, volume: -10, wantRate: 5, wantReason: "not positive"},
		{name: "nan volume", mfn: 5, pref: 0, volume: math.NaN(), wantRate: 5, wantReason: "not positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.mfn, tt.pref, tt.volume)
			assert.InDelta(t, tt.wantRate, got.SavingsRate, 1e-9)
			assert.InDelta(t, tt.wantAnnual, got.AnnualSavings, 1e-6)
			assert.InDelta(t, tt.wantMonthly, got.MonthlySavings, 1e-6)
			if tt.wantReason != "" {
				assert.Contains(t, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestCalculate_SavingsRateNeverNegative(t *testing.T) {
	rates := []float64{-5, 0, 0.5, 2.6, 10, 25, math.NaN(), math.Inf(1)}
	for _, mfn := range rates {
		for _, pref := range rates {
			got := Calculate(mfn, pref, 1000)
			assert.GreaterOrEqual(t, got.SavingsRate, 0.0, "mfn %v pref %v", mfn, pref)
			assert.GreaterOrEqual(t, got.AnnualSavings, 0.0)
			assert.InDelta(t, got.AnnualSavings/12, got.MonthlySavings, 1e-9)
		}
	}
}

// Package savings turns a rate differential and a trade volume into duty
// savings.
package savings

import (
	"math"

	"tariff-workers/internal/models"
)

// Calculate never fails. A preferential rate above MFN floors the savings
// rate at zero, and a non-positive volume yields zero savings.
func Calculate(mfnRate, preferentialRate, tradeVolume float64) models.SavingsResult {
	r := models.SavingsResult{
		MFNRate:          mfnRate,
		PreferentialRate: preferentialRate,
		TradeVolume:      tradeVolume,
		SavingsRate:      math.Max(0, finite(mfnRate)-finite(preferentialRate)),
	}

	switch {
	case !(tradeVolume > 0) || math.IsInf(tradeVolume, 0):
		r.Reason = "trade volume is not positive; savings reported as zero"
		return r
	case r.SavingsRate == 0:
		r.Reason = "preferential rate offers no reduction over MFN"
		return r
	}

	r.AnnualSavings = tradeVolume * r.SavingsRate / 100
	r.MonthlySavings = r.AnnualSavings / 12
	return r
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

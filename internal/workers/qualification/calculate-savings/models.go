package calculatesavings

import "tariff-workers/internal/models"

// Input mirrors the rate and qualification outputs of earlier tasks.
// Qualified is optional; an explicit false prices the goods at MFN.
type Input struct {
	MFNRate          float64 `json:"mfnRate"`
	PreferentialRate float64 `json:"preferentialRate"`
	TradeVolume      float64 `json:"tradeVolume"`
	Qualified        *bool   `json:"qualified,omitempty"`
}

type Output struct {
	Savings        models.SavingsResult `json:"savings"`
	AnnualSavings  float64              `json:"annualSavings"`
	MonthlySavings float64              `json:"monthlySavings"`
}

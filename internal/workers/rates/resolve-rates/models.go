package resolverates

import (
	"tariff-workers/internal/models"
	"tariff-workers/internal/tariff/rates"
)

// Input resolves a single code, or a batch when Codes is non-empty.
type Input struct {
	Code  string   `json:"code,omitempty"`
	Codes []string `json:"codes,omitempty"`
}

type Output struct {
	Rates             *models.RateResolution `json:"rates,omitempty"`
	RateFound         bool                   `json:"rateFound"`
	RateTier          models.SourceTier      `json:"rateTier,omitempty"`
	ConfidenceCeiling int                    `json:"confidenceCeiling"`

	RateBatch []rates.BatchItem `json:"rateBatch,omitempty"`
	TierStats *rates.Stats      `json:"tierStats,omitempty"`
}

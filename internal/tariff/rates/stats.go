package rates

import "tariff-workers/internal/models"

// Health bands for a batch, by the share of exact or category tier hits.
const (
	HealthExcellent        = "excellent"
	HealthGood             = "good"
	HealthNeedsImprovement = "needs_improvement"
)

// Stats summarizes which tiers served a batch.
type Stats struct {
	Total            int                           `json:"total"`
	Failed           int                           `json:"failed"`
	ByTier           map[models.SourceTier]int     `json:"byTier"`
	TierPercentage   map[models.SourceTier]float64 `json:"tierPercentage"`
	HighQualityShare float64                       `json:"highQualityPercentage"`
	Health           string                        `json:"systemHealth"`
}

// TierStats counts resolutions per tier. Failed items count toward Total but
// never toward the high-quality share.
func TierStats(items []BatchItem) Stats {
	s := Stats{
		Total:          len(items),
		ByTier:         make(map[models.SourceTier]int),
		TierPercentage: make(map[models.SourceTier]float64),
		Health:         HealthNeedsImprovement,
	}
	if s.Total == 0 {
		return s
	}

	for _, item := range items {
		if item.Resolution == nil {
			s.Failed++
			continue
		}
		s.ByTier[item.Resolution.Tier]++
	}
	for tier, n := range s.ByTier {
		s.TierPercentage[tier] = float64(n) / float64(s.Total) * 100
	}

	high := s.ByTier[models.TierExact] + s.ByTier[models.TierCategory]
	s.HighQualityShare = float64(high) / float64(s.Total) * 100
	switch {
	case s.HighQualityShare >= 80:
		s.Health = HealthExcellent
	case s.HighQualityShare >= 60:
		s.Health = HealthGood
	}
	return s
}

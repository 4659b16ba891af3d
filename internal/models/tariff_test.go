package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		confidence int
		want       string
	}{
		{100, LabelVerified},
		{95, LabelVerified},
		{94, LabelCategory},
		{80, LabelCategory},
		{79, LabelHeading},
		{65, LabelHeading},
		{64, LabelEstimated},
		{50, LabelEstimated},
		{40, LabelEstimated},
		{39, LabelNeedsResearch},
		{0, LabelNeedsResearch},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceLabel(tt.confidence), "confidence %d", tt.confidence)
	}
}

func TestSourceTier_CeilingsStrictlyDecrease(t *testing.T) {
	order := []SourceTier{TierExact, TierCategory, TierHeading, TierChapter, TierNotFound}
	expected := []int{100, 85, 70, 50, 0}

	for i, tier := range order {
		assert.Equal(t, expected[i], tier.ConfidenceCeiling(), string(tier))
		if i > 0 {
			assert.Less(t, tier.ConfidenceCeiling(), order[i-1].ConfidenceCeiling())
		}
	}
}

func TestClassificationResult_Top(t *testing.T) {
	var nilResult *ClassificationResult
	assert.Nil(t, nilResult.Top())
	assert.True(t, nilResult.IsNotFound())

	empty := &ClassificationResult{Status: ClassificationNotFound}
	assert.Nil(t, empty.Top())
	assert.True(t, empty.IsNotFound())

	found := &ClassificationResult{
		Status:     ClassificationFound,
		Candidates: []Candidate{{Code: "854411", Confidence: 95}, {Code: "7408", Confidence: 80}},
	}
	assert.Equal(t, "854411", found.Top().Code)
	assert.False(t, found.IsNotFound())
}

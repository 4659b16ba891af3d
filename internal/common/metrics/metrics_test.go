package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"tariff-workers/internal/models"
)

func TestObserveRateTier(t *testing.T) {
	before := testutil.ToFloat64(RateTierLookups.WithLabelValues("heading", "hit"))

	ObserveRateTier(models.TierHeading, "hit", 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RateTierLookups.WithLabelValues("heading", "hit")))
}

func TestObserveClassification(t *testing.T) {
	before := testutil.ToFloat64(ClassificationNotFound)

	ObserveClassification(&models.ClassificationResult{Status: models.ClassificationNotFound})
	ObserveClassification(&models.ClassificationResult{
		Status:     models.ClassificationFound,
		Candidates: []models.Candidate{{Code: "8544", Confidence: 83}},
	})

	assert.Equal(t, before+1, testutil.ToFloat64(ClassificationNotFound))
	assert.Equal(t, 1, testutil.CollectAndCount(ClassificationConfidence))
}

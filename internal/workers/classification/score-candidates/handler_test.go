package scorecandidates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
	"tariff-workers/internal/store"
	"tariff-workers/internal/tariff/matcher"
	"tariff-workers/internal/tariff/scorer"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	snap, err := store.NewMemoryStore([]models.TariffCodeRecord{
		{Code: "8544.11", Description: "Winding wire of copper, insulated", Category: "electronics", MFNRate: 3.5},
		{Code: "7408", Description: "Copper wire", Category: "metals", MFNRate: 3.0},
		{Code: "8536", Description: "Electrical apparatus for switching or protecting electrical circuits", Category: "electronics", MFNRate: 2.7},
	})
	require.NoError(t, err)

	h, err := NewHandler(HandlerOptions{
		Logger: logger.NewTestLogger(t),
		Scorer: scorer.New(snap, matcher.DefaultVocabulary()),
	})
	require.NoError(t, err)
	return h
}

func TestHandler_Execute_FromDescription(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Description:  "Copper electrical wire",
		CategoryHint: "electronics",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ClassificationFound, out.ClassificationStatus)
	assert.Equal(t, "854411", out.TopCode)
	assert.GreaterOrEqual(t, out.TopConfidence, 85)
	assert.Equal(t, models.LabelVerified, out.ConfidenceLabel)
	assert.Equal(t, []string{"copper", "electrical", "wire"}, out.Classification.Terms)
}

func TestHandler_Execute_FromTerms(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Description: "ignored when terms are present",
		Terms:       []string{"copper", "wire"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"copper", "wire"}, out.Classification.Terms)
	assert.Equal(t, "7408", out.TopCode)
}

func TestHandler_Execute_NotFound(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{Terms: []string{"bicycle", "saddle"}})
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationNotFound, out.ClassificationStatus)
	assert.Empty(t, out.TopCode)
	assert.Zero(t, out.TopConfidence)
	assert.Equal(t, models.LabelNeedsResearch, out.ConfidenceLabel)
	assert.Empty(t, out.Classification.Candidates)
}

func TestHandler_Execute_MissingInput(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{CategoryHint: "electronics"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestNewHandler_RequiresScorer(t *testing.T) {
	_, err := NewHandler(HandlerOptions{})
	assert.Error(t, err)
}

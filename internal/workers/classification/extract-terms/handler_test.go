package extractterms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		input        Input
		wantTerms    []string
		wantChapters []string
	}{
		{
			name:         "scenario A description",
			input:        Input{Description: "Copper electrical wire", CategoryHint: "electronics"},
			wantTerms:    []string{"copper", "electrical", "wire"},
			wantChapters: []string{"84", "85"},
		},
		{
			name:         "stop words and short tokens dropped",
			input:        Input{Description: "The cotton t-shirt for men"},
			wantTerms:    []string{"cotton", "shirt"},
			wantChapters: []string{},
		},
		{
			name:         "nothing survives filtering",
			input:        Input{Description: "a box", CategoryHint: "unknown"},
			wantTerms:    []string{"a box"},
			wantChapters: []string{},
		},
	}

	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerms, out.Terms)
			assert.Equal(t, tt.wantChapters, out.CandidateChapters)
		})
	}
}

func TestHandler_Execute_EmptyDescription(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{Description: "  "})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 9, Timeout: 1500},
	}}
	cfg := createConfigFromAppConfig(app, nil)
	assert.Equal(t, 9, cfg.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)

	custom := DefaultConfig()
	assert.Same(t, custom, createConfigFromAppConfig(app, custom))
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 0
	_, err := NewHandler(HandlerOptions{CustomConfig: cfg})
	assert.Error(t, err)
}

func TestHandler_Metadata(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, TaskType, h.GetTaskType())
	assert.True(t, h.IsEnabled())
	assert.Equal(t, 5, h.GetConfig().MaxJobsActive)
}

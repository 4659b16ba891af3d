package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-workers/internal/common/config"
	apperrors "tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/pkg/registry"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               "extract-terms",
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "tariff-classification",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func testValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.NewValidator(&registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:       "extract-terms",
		TaskType: "extract-terms",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"description"},
			"properties": map[string]interface{}{
				"description": map[string]interface{}{"type": "string", "minLength": 1},
			},
		},
	}}})
	require.NoError(t, err)
	return v
}

func TestRuntime_Decode(t *testing.T) {
	rt := NewRuntime("extract-terms", DefaultSettings(), nil, testValidator(t), logger.NewTestLogger(t))

	var input struct {
		Description  string `json:"description"`
		CategoryHint string `json:"categoryHint"`
	}
	err := rt.Decode(createMockJob(1, map[string]interface{}{
		"description":  "Copper electrical wire",
		"categoryHint": "electronics",
	}), &input)
	require.NoError(t, err)
	assert.Equal(t, "Copper electrical wire", input.Description)
	assert.Equal(t, "electronics", input.CategoryHint)
}

func TestRuntime_DecodeRejectsSchemaViolations(t *testing.T) {
	rt := NewRuntime("extract-terms", DefaultSettings(), nil, testValidator(t), nil)

	var input struct{}
	err := rt.Decode(createMockJob(2, map[string]interface{}{"categoryHint": "electronics"}), &input)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	assert.Contains(t, err.Error(), "description")
}

func TestRuntime_DecodeRejectsMalformedVariables(t *testing.T) {
	rt := NewRuntime("extract-terms", DefaultSettings(), nil, nil, nil)
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 3, Variables: "{not json"}}

	var input struct{}
	err := rt.Decode(job, &input)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputParsingFailed))
}

func TestSettingsFor(t *testing.T) {
	assert.Equal(t, DefaultSettings(), SettingsFor(nil, "resolve-rates"))

	app := &config.Config{Workers: map[string]config.WorkerConfig{
		"resolve-rates": {Enabled: false, MaxJobsActive: 12, Timeout: 5000},
	}}
	s := SettingsFor(app, "resolve-rates")
	assert.False(t, s.Enabled)
	assert.Equal(t, 12, s.MaxJobsActive)
	assert.Equal(t, 5*time.Second, s.Timeout)

	assert.True(t, SettingsFor(app, "extract-terms").Enabled)
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.Error(t, Settings{MaxJobsActive: 1}.Validate())
	assert.Error(t, Settings{Timeout: time.Second}.Validate())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INVALID_INPUT", ErrorCode(apperrors.NewInvalidInputError("empty")))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(errors.New("boom")))
}

func TestRuntime_RegisterDisabledIsNoop(t *testing.T) {
	s := DefaultSettings()
	s.Enabled = false
	rt := NewRuntime("extract-terms", s, nil, nil, nil)
	assert.NoError(t, rt.Register(nil))
	assert.False(t, rt.IsEnabled())

	rt = NewRuntime("extract-terms", DefaultSettings(), nil, nil, nil)
	assert.Error(t, rt.Register(nil))
}

type recordingObserver struct {
	statuses []string
	total    time.Duration
}

func (o *recordingObserver) RecordJobProcessed(_ context.Context, status string) {
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) RecordJobDuration(_ context.Context, d time.Duration, _ string) {
	o.total += d
}

func TestRuntime_Observer(t *testing.T) {
	rt := NewRuntime("extract-terms", DefaultSettings(), nil, nil, nil)
	rt.observe(context.Background(), "completed", time.Millisecond)

	obs := &recordingObserver{}
	rt.SetObserver(obs)
	rt.observe(context.Background(), "failed", 2*time.Millisecond)
	rt.observe(context.Background(), "completed", 3*time.Millisecond)

	assert.Equal(t, []string{"failed", "completed"}, obs.statuses)
	assert.Equal(t, 5*time.Millisecond, obs.total)
}

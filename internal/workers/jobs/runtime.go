// Package jobs holds the plumbing every tariff job worker shares: settings,
// variable decoding, metrics, completion and failure reporting.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/metrics"
	"tariff-workers/internal/common/validation"
)

// Settings are the per-worker knobs from the workers.<taskType> config section.
type Settings struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultSettings() Settings {
	return Settings{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

// SettingsFor reads taskType's section, falling back to DefaultSettings.
func SettingsFor(appConfig *config.Config, taskType string) Settings {
	s := DefaultSettings()
	if appConfig == nil {
		return s
	}
	if workerCfg, exists := appConfig.Workers[taskType]; exists {
		s.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			s.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			s.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}
	return s
}

func (s Settings) Validate() error {
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if s.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}

// Runtime is embedded by handlers. It is safe for concurrent jobs.
type Runtime struct {
	taskType  string
	settings  Settings
	camunda   *camunda.Client
	validator *validation.Validator
	logger    logger.Logger
	errors    *errors.ErrorHandler
	observer  JobObserver
	jobWorker worker.JobWorker
}

// JobObserver receives the outcome of every served job.
type JobObserver interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

// SetObserver must be called before Register.
func (r *Runtime) SetObserver(o JobObserver) { r.observer = o }

func (r *Runtime) observe(ctx context.Context, status string, elapsed time.Duration) {
	if r.observer == nil {
		return
	}
	r.observer.RecordJobProcessed(ctx, status)
	r.observer.RecordJobDuration(ctx, elapsed, status)
}

func NewRuntime(taskType string, settings Settings, client *camunda.Client, validator *validation.Validator, log logger.Logger) *Runtime {
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &Runtime{
		taskType:  taskType,
		settings:  settings,
		camunda:   client,
		validator: validator,
		logger:    log,
		errors:    errors.NewErrorHandler(log),
	}
}

func (r *Runtime) GetTaskType() string { return r.taskType }

func (r *Runtime) IsEnabled() bool { return r.settings.Enabled }

func (r *Runtime) Logger() logger.Logger { return r.logger }

// Decode validates the job variables against the registered input schema
// and unmarshals them into out.
func (r *Runtime) Decode(job entities.Job, out interface{}) error {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.NewInputParsingFailedError(err)
	}
	if err := r.validator.Validate(r.taskType, vars); err != nil {
		return err
	}
	if err := job.GetVariablesAs(out); err != nil {
		return errors.NewInputParsingFailedError(err)
	}
	return nil
}

// Serve runs fn for one job and reports the outcome to the broker. The
// value fn returns becomes the job's output variables.
func (r *Runtime) Serve(client worker.JobClient, job entities.Job, fn func(ctx context.Context) (interface{}, error)) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.settings.Timeout)
	defer cancel()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	output, err := fn(ctx)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, ErrorCode(err)).Inc()
		r.errors.HandleJobError(ctx, client, job, err)
		r.observe(ctx, "failed", time.Since(startTime))
		return
	}

	if err := r.complete(ctx, client, job, output); err != nil {
		r.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		r.observe(ctx, "complete_failed", time.Since(startTime))
		return
	}
	r.observe(ctx, "completed", time.Since(startTime))
	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(startTime).Seconds())
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"durationMs": time.Since(startTime).Milliseconds(),
	})
}

func (r *Runtime) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("encode output variables: %w", err)
	}
	_, err = request.Send(ctx)
	return err
}

// Register opens the job worker unless the worker is disabled.
func (r *Runtime) Register(handler worker.JobHandler) error {
	if !r.settings.Enabled {
		r.logger.Info("worker is disabled, skipping registration", nil)
		return nil
	}
	if r.camunda == nil {
		return fmt.Errorf("no camunda client for %s", r.taskType)
	}

	r.jobWorker = camunda.OpenJobWorker(r.camunda.GetClient(), camunda.JobSpec{
		TaskType:      r.taskType,
		MaxJobsActive: r.settings.MaxJobsActive,
		Timeout:       r.settings.Timeout,
	}, handler)

	r.logger.Info("worker registered with camunda", map[string]interface{}{
		"maxJobsActive": r.settings.MaxJobsActive,
		"timeout":       r.settings.Timeout.String(),
	})
	return nil
}

func (r *Runtime) Close() {
	if r.jobWorker != nil {
		r.logger.Info("shutting down worker gracefully", nil)
		r.jobWorker.Close()
		r.jobWorker.AwaitClose()
		r.jobWorker = nil
	}
}

func (r *Runtime) HealthCheck(ctx context.Context) error {
	if r.camunda == nil {
		return nil
	}
	if err := r.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

// ErrorCode is the metrics label for err.
func ErrorCode(err error) string {
	return string(errors.AsStandardError(err).Code)
}

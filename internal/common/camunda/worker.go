// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"tariff-workers/internal/common/logger"
)

// JobSpec is what a handler needs to open its job worker.
type JobSpec struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// OpenJobWorker starts polling for spec.TaskType.
func OpenJobWorker(client zbc.Client, spec JobSpec, handler worker.JobHandler) worker.JobWorker {
	return client.NewJobWorker().
		JobType(spec.TaskType).
		Handler(handler).
		MaxJobsActive(spec.MaxJobsActive).
		Timeout(spec.Timeout).
		Name(fmt.Sprintf("%s-worker", spec.TaskType)).
		Open()
}

// Worker is implemented by every job handler.
type Worker interface {
	GetTaskType() string
	IsEnabled() bool
	Register() error
	Close()
	HealthCheck(ctx context.Context) error
}

// Manager owns the registered workers of one process.
type Manager struct {
	workers []Worker
	logger  logger.Logger
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{logger: log}
}

func (m *Manager) Add(w Worker) {
	m.workers = append(m.workers, w)
}

// RegisterAll registers every enabled worker. On failure the workers opened
// so far are closed again.
func (m *Manager) RegisterAll() error {
	for i, w := range m.workers {
		if !w.IsEnabled() {
			m.logger.Info("worker disabled, skipping registration", map[string]interface{}{
				"taskType": w.GetTaskType(),
			})
			continue
		}
		if err := w.Register(); err != nil {
			for _, opened := range m.workers[:i] {
				opened.Close()
			}
			return fmt.Errorf("register %s: %w", w.GetTaskType(), err)
		}
	}
	return nil
}

// Enabled lists the task types that are switched on.
func (m *Manager) Enabled() []string {
	var out []string
	for _, w := range m.workers {
		if w.IsEnabled() {
			out = append(out, w.GetTaskType())
		}
	}
	return out
}

// HealthCheck returns the first failing worker's error.
func (m *Manager) HealthCheck(ctx context.Context) error {
	for _, w := range m.workers {
		if !w.IsEnabled() {
			continue
		}
		if err := w.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", w.GetTaskType(), err)
		}
	}
	return nil
}

func (m *Manager) CloseAll() {
	for _, w := range m.workers {
		w.Close()
	}
}

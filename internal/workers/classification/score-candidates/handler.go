package scorecandidates

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/metrics"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/models"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "score-candidates"

// Scorer ranks candidates for pre-extracted terms.
type Scorer interface {
	Score(ctx context.Context, terms []string, categoryHint string) (*models.ClassificationResult, error)
}

// Classifier extracts terms itself; usually the cached pipeline classifier.
type Classifier interface {
	Classify(ctx context.Context, description, categoryHint string) (*models.ClassificationResult, error)
}

type Handler struct {
	*jobs.Runtime
	config     *Config
	scorer     Scorer
	classifier Classifier
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
	Scorer       Scorer
	Classifier   Classifier
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Scorer == nil {
		return nil, fmt.Errorf("%s: scorer is required", TaskType)
	}
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	classifier := opts.Classifier
	if classifier == nil {
		if c, ok := opts.Scorer.(Classifier); ok {
			classifier = c
		}
	}

	return &Handler{
		Runtime:    jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:     workerConfig,
		scorer:     opts.Scorer,
		classifier: classifier,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.Serve(client, job, func(ctx context.Context) (interface{}, error) {
		var input Input
		if err := h.Decode(job, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.classify(ctx, input)
	if err != nil {
		return nil, err
	}
	metrics.ObserveClassification(result)

	out := &Output{
		Classification:       result,
		ClassificationStatus: result.Status,
		ConfidenceLabel:      models.LabelNeedsResearch,
	}
	if top := result.Top(); top != nil {
		out.TopCode = top.Code
		out.TopConfidence = top.Confidence
		out.ConfidenceLabel = top.Label
	}

	h.Logger().Info("candidates scored", map[string]interface{}{
		"status":     out.ClassificationStatus,
		"topCode":    out.TopCode,
		"confidence": out.TopConfidence,
		"candidates": len(result.Candidates),
	})
	return out, nil
}

func (h *Handler) classify(ctx context.Context, input *Input) (*models.ClassificationResult, error) {
	if len(input.Terms) > 0 {
		return h.scorer.Score(ctx, input.Terms, input.CategoryHint)
	}
	if input.Description == "" {
		return nil, errors.NewInvalidInputError("either description or terms is required")
	}
	if h.classifier == nil {
		return nil, errors.NewInvalidInputError("terms are required; no classifier configured")
	}
	return h.classifier.Classify(ctx, input.Description, input.CategoryHint)
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

package classifyandqualify

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/metrics"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/tariff/pipeline"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "classify-and-qualify"

type Pipeline interface {
	ClassifyAndQualify(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type Handler struct {
	*jobs.Runtime
	config   *Config
	pipeline Pipeline
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
	Pipeline     Pipeline
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("%s: pipeline service is required", TaskType)
	}
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	return &Handler{
		Runtime:  jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:   workerConfig,
		pipeline: opts.Pipeline,
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
	result, err := h.pipeline.ClassifyAndQualify(ctx, input.request())
	if err != nil {
		return nil, err
	}
	metrics.ObserveClassification(result.Classification)

	out := &Output{
		Result:         result,
		Fingerprint:    result.Fingerprint,
		AnnualSavings:  result.Savings.AnnualSavings,
		ReviewRequired: result.Review.Required,
		ReviewReasons:  result.Review.Reasons,
	}
	if out.ReviewReasons == nil {
		out.ReviewReasons = []string{}
	}
	if top := result.Classification.Top(); top != nil {
		out.TopCode = top.Code
	}
	if result.Qualification != nil {
		out.Qualified = result.Qualification.Qualified
	}

	if out.ReviewRequired {
		metrics.BrokerReviewsRequired.WithLabelValues(TaskType).Inc()
		h.Logger().Warn("result needs broker review", map[string]interface{}{
			"fingerprint": out.Fingerprint,
			"reasons":     out.ReviewReasons,
		})
	}
	return out, nil
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

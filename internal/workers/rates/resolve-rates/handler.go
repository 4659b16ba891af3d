package resolverates

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/models"
	"tariff-workers/internal/tariff/rates"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "resolve-rates"

type RateResolver interface {
	Resolve(ctx context.Context, code string) (*models.RateResolution, error)
	ResolveBatch(ctx context.Context, codes []string) ([]rates.BatchItem, error)
}

type Handler struct {
	*jobs.Runtime
	config   *Config
	resolver RateResolver
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
	Resolver     RateResolver
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("%s: rate resolver is required", TaskType)
	}
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	return &Handler{
		Runtime:  jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:   workerConfig,
		resolver: opts.Resolver,
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
	if len(input.Codes) > 0 {
		return h.executeBatch(ctx, input.Codes)
	}
	if input.Code == "" {
		return nil, errors.NewInvalidInputError("code or codes is required")
	}

	res, err := h.resolver.Resolve(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	h.Logger().Info("rate resolved", map[string]interface{}{
		"code":  res.RequestedCode,
		"tier":  string(res.Tier),
		"found": res.Found(),
	})
	return &Output{
		Rates:             res,
		RateFound:         res.Found(),
		RateTier:          res.Tier,
		ConfidenceCeiling: res.ConfidenceCeiling,
	}, nil
}

func (h *Handler) executeBatch(ctx context.Context, codes []string) (*Output, error) {
	if len(codes) > h.config.MaxBatchSize {
		return nil, errors.NewInvalidInputError(
			fmt.Sprintf("batch of %d codes exceeds the limit of %d", len(codes), h.config.MaxBatchSize))
	}

	items, err := h.resolver.ResolveBatch(ctx, codes)
	if err != nil {
		return nil, err
	}
	stats := rates.TierStats(items)

	h.Logger().Info("rate batch resolved", map[string]interface{}{
		"total":  stats.Total,
		"failed": stats.Failed,
		"health": stats.Health,
	})
	return &Output{RateBatch: items, TierStats: &stats}, nil
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

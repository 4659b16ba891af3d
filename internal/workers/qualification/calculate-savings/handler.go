package calculatesavings

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/tariff/savings"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "calculate-savings"

const notQualifiedReason = "components do not qualify for preferential treatment; savings reported as zero"

type Handler struct {
	*jobs.Runtime
	config *Config
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	return &Handler{
		Runtime: jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:  workerConfig,
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

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	result := savings.Calculate(input.MFNRate, input.PreferentialRate, input.TradeVolume)
	if input.Qualified != nil && !*input.Qualified {
		result = savings.Calculate(input.MFNRate, input.MFNRate, input.TradeVolume)
		result.Reason = notQualifiedReason
	}

	return &Output{
		Savings:        result,
		AnnualSavings:  result.AnnualSavings,
		MonthlySavings: result.MonthlySavings,
	}, nil
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

package qualifycomponents

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/tariff/qualify"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "qualify-components"

type Handler struct {
	*jobs.Runtime
	config *Config
	engine *qualify.Engine
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
	Engine       *qualify.Engine
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	engine := opts.Engine
	if engine == nil {
		engine = qualify.NewEngine(qualify.DefaultConfig())
	}

	return &Handler{
		Runtime: jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:  workerConfig,
		engine:  engine,
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
	verdict, err := h.engine.Qualify(input.Components, input.Category)
	if err != nil {
		return nil, err
	}

	h.Logger().Info("components qualified", map[string]interface{}{
		"category":  input.Category,
		"rvc":       verdict.RegionalValueContent,
		"threshold": verdict.ThresholdRequired,
		"qualified": verdict.Qualified,
	})
	return &Output{
		Qualification:        verdict,
		Qualified:            verdict.Qualified,
		RegionalValueContent: verdict.RegionalValueContent,
		Gap:                  verdict.Gap,
		Bloc:                 h.engine.BlocName(),
	}, nil
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

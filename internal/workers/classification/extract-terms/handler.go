package extractterms

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/tariff/matcher"
	"tariff-workers/internal/workers/jobs"
)

const TaskType = "extract-terms"

type Handler struct {
	*jobs.Runtime
	config *Config
	vocab  *matcher.Vocabulary
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Validator    *validation.Validator
	Vocabulary   *matcher.Vocabulary
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	vocab := opts.Vocabulary
	if vocab == nil {
		vocab = matcher.DefaultVocabulary()
	}

	return &Handler{
		Runtime: jobs.NewRuntime(TaskType, workerConfig.Settings, opts.Camunda, opts.Validator, opts.Logger),
		config:  workerConfig,
		vocab:   vocab,
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

// Execute is pure; ctx is accepted for symmetry with the other workers.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	terms, err := h.vocab.ExtractTerms(input.Description)
	if err != nil {
		return nil, err
	}
	chapters := h.vocab.CandidateChapters(input.CategoryHint)
	if chapters == nil {
		chapters = []string{}
	}
	return &Output{Terms: terms, CandidateChapters: chapters}, nil
}

func (h *Handler) Register() error {
	return h.Runtime.Register(h.Handle)
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

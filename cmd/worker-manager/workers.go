package main

import (
	"context"
	"fmt"

	"tariff-workers/internal/common/aws"
	"tariff-workers/internal/common/camunda"
	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/common/validation"
	"tariff-workers/internal/tariff/pipeline"
	"tariff-workers/internal/workers/jobs"

	extractterms "tariff-workers/internal/workers/classification/extract-terms"
	scorecandidates "tariff-workers/internal/workers/classification/score-candidates"
	notifybrokerreview "tariff-workers/internal/workers/notification/notify-broker-review"
	classifyandqualify "tariff-workers/internal/workers/pipeline/classify-and-qualify"
	calculatesavings "tariff-workers/internal/workers/qualification/calculate-savings"
	qualifycomponents "tariff-workers/internal/workers/qualification/qualify-components"
	resolverates "tariff-workers/internal/workers/rates/resolve-rates"
)

type deps struct {
	camunda    *camunda.Client
	validator  *validation.Validator
	logger     logger.Logger
	components *pipeline.Components
	observer   jobs.JobObserver
}

// buildWorkers creates one handler per task type. Handlers are created even
// when disabled so the manager can report them.
func buildWorkers(ctx context.Context, cfg *config.Config, d deps) (*camunda.Manager, error) {
	m := camunda.NewManager(d.logger)
	c := d.components
	add := func(w camunda.Worker) {
		if o, ok := w.(interface{ SetObserver(jobs.JobObserver) }); ok && d.observer != nil {
			o.SetObserver(d.observer)
		}
		m.Add(w)
	}

	et, err := extractterms.NewHandler(extractterms.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
		Vocabulary: c.Vocabulary,
	})
	if err != nil {
		return nil, err
	}
	add(et)

	sc, err := scorecandidates.NewHandler(scorecandidates.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
		Scorer: c.Scorer, Classifier: c.Classifier,
	})
	if err != nil {
		return nil, err
	}
	add(sc)

	rr, err := resolverates.NewHandler(resolverates.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
		Resolver: c.Resolver,
	})
	if err != nil {
		return nil, err
	}
	add(rr)

	qc, err := qualifycomponents.NewHandler(qualifycomponents.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
		Engine: c.Engine,
	})
	if err != nil {
		return nil, err
	}
	add(qc)

	cs, err := calculatesavings.NewHandler(calculatesavings.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
	})
	if err != nil {
		return nil, err
	}
	add(cs)

	cq, err := classifyandqualify.NewHandler(classifyandqualify.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
		Pipeline: c.Service,
	})
	if err != nil {
		return nil, err
	}
	add(cq)

	nb, err := newNotifier(ctx, cfg, d)
	if err != nil {
		return nil, err
	}
	add(nb)

	return m, nil
}

// newNotifier loads AWS credentials only when a channel is switched on.
func newNotifier(ctx context.Context, cfg *config.Config, d deps) (*notifybrokerreview.Handler, error) {
	opts := notifybrokerreview.HandlerOptions{
		AppConfig: cfg, Camunda: d.camunda, Logger: d.logger, Validator: d.validator,
	}

	n := cfg.Notifications
	if n.Email.Enabled || n.SNS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, n.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		if n.Email.Enabled {
			opts.SES = aws.NewSESClient(awsCfg)
		}
		if n.SNS.Enabled {
			opts.SNS = aws.NewSNSClient(awsCfg)
		}
	}
	return notifybrokerreview.NewHandler(opts)
}

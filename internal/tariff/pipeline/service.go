// Package pipeline runs the full classify, rate, qualify and savings sequence
// for one product and decides whether a licensed broker has to review it.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
	"tariff-workers/internal/store"
	"tariff-workers/internal/tariff/savings"
)

// Stage names, in execution order.
const (
	StageClassify = "classify"
	StageRates    = "rates"
	StageQualify  = "qualify"
	StageSavings  = "savings"
)

const (
	// RecommendedAction is attached to every result that needs review.
	RecommendedAction = "Contact a licensed customs broker"

	KnownCodeRationale = "known code supplied"

	defaultReviewThreshold = 40
)

// fingerprintSpace namespaces the name-based UUIDs used as result fingerprints.
var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:tariff-workers:classify-and-qualify"))

type Classifier interface {
	Classify(ctx context.Context, description, categoryHint string) (*models.ClassificationResult, error)
}

type RateResolver interface {
	Resolve(ctx context.Context, code string) (*models.RateResolution, error)
}

type Qualifier interface {
	Qualify(components []models.ComponentOrigin, category string) (*models.QualificationVerdict, error)
}

// StageObserver receives the wall time of every stage. err is nil on success.
type StageObserver func(stage string, elapsed time.Duration, err error)

// Request is the input of ClassifyAndQualify.
type Request struct {
	Query       models.ProductQuery      `json:"query"`
	Components  []models.ComponentOrigin `json:"components"`
	TradeVolume float64                  `json:"tradeVolume"`
}

// Result bundles every stage output. Fingerprint is derived from the request
// alone, so identical requests against the same snapshot compare equal.
type Result struct {
	Fingerprint    string                       `json:"fingerprint"`
	Classification *models.ClassificationResult `json:"classification"`
	Rates          *models.RateResolution       `json:"rates"`
	Qualification  *models.QualificationVerdict `json:"qualification"`
	Savings        models.SavingsResult         `json:"savings"`
	Review         models.ReviewFlag            `json:"review"`
}

type Service struct {
	classifier      Classifier
	resolver        RateResolver
	qualifier       Qualifier
	reviewThreshold int
	observer        StageObserver
	tracer          trace.Tracer
	logger          logger.Logger
}

type Option func(*Service)

// WithReviewThreshold sets the top-candidate confidence below which a
// result is flagged for review.
func WithReviewThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.reviewThreshold = threshold
		}
	}
}

func WithStageObserver(o StageObserver) Option {
	return func(s *Service) { s.observer = o }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewService(classifier Classifier, resolver RateResolver, qualifier Qualifier, opts ...Option) *Service {
	s := &Service{
		classifier:      classifier,
		resolver:        resolver,
		qualifier:       qualifier,
		reviewThreshold: defaultReviewThreshold,
		tracer:          noop.NewTracerProvider().Tracer("pipeline"),
		logger:          logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClassifyAndQualify runs matcher and scorer, resolves rates for the top
// candidate, qualifies the components and computes savings. A known code
// skips classification. Misses at any stage are reported in the result;
// only invalid input and infrastructure failures return an error.
func (s *Service) ClassifyAndQualify(ctx context.Context, req Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "classifyAndQualify")
	defer span.End()

	result := &Result{Fingerprint: Fingerprint(req)}
	span.SetAttributes(attribute.String("fingerprint", result.Fingerprint))

	var err error
	if strings.TrimSpace(req.Query.KnownCode) != "" {
		err = s.stage(ctx, StageRates, func(ctx context.Context) error {
			result.Rates, result.Classification, err = s.knownCode(ctx, req.Query)
			return err
		})
	} else {
		err = s.stage(ctx, StageClassify, func(ctx context.Context) error {
			result.Classification, err = s.classifier.Classify(ctx, req.Query.Description, req.Query.CategoryHint)
			return err
		})
		if err == nil {
			err = s.stage(ctx, StageRates, func(ctx context.Context) error {
				result.Rates, err = s.ratesFor(ctx, result.Classification)
				return err
			})
		}
	}
	if err != nil {
		return nil, s.fail(span, err)
	}

	category := qualificationCategory(req.Query, result)
	err = s.stage(ctx, StageQualify, func(context.Context) error {
		result.Qualification, err = s.qualifier.Qualify(req.Components, category)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	_ = s.stage(ctx, StageSavings, func(context.Context) error {
		result.Savings = effectiveSavings(result.Rates, result.Qualification, req.TradeVolume)
		return nil
	})

	result.Review = s.review(result)
	span.SetAttributes(attribute.Bool("review.required", result.Review.Required))
	if result.Review.Required {
		s.logger.Info("result flagged for broker review", map[string]interface{}{
			"fingerprint": result.Fingerprint,
			"reasons":     result.Review.Reasons,
		})
	}
	return result, nil
}

func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "stage."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if s.observer != nil {
		s.observer(name, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if !errors.IsInvalidInput(err) {
		s.logger.Warn("classify and qualify failed", map[string]interface{}{"error": err})
	}
	return err
}

func (s *Service) knownCode(ctx context.Context, q models.ProductQuery) (*models.RateResolution, *models.ClassificationResult, error) {
	code, err := store.NormalizeCode(q.KnownCode)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	cand := models.Candidate{
		Code:       code,
		Confidence: res.ConfidenceCeiling,
		Label:      models.ConfidenceLabel(res.ConfidenceCeiling),
		Rationale:  KnownCodeRationale,
		Steps:      []string{KnownCodeRationale},
	}
	if res.Record != nil {
		cand.Description = res.Record.Description
		cand.Category = res.Record.Category
	}

	return res, &models.ClassificationResult{
		Status:     models.ClassificationFound,
		Candidates: []models.Candidate{cand},
		Reason:     fmt.Sprintf("known code %s supplied; classification skipped", code),
	}, nil
}

func (s *Service) ratesFor(ctx context.Context, c *models.ClassificationResult) (*models.RateResolution, error) {
	top := c.Top()
	if top == nil {
		return &models.RateResolution{
			Tier:              models.TierNotFound,
			ConfidenceCeiling: models.TierNotFound.ConfidenceCeiling(),
			Label:             models.ConfidenceLabel(0),
			Reason:            "no classification to resolve rates for",
		}, nil
	}
	return s.resolver.Resolve(ctx, top.Code)
}

// qualificationCategory prefers the caller's hint, then the category of the
// record the rate came from, then the top candidate.
func qualificationCategory(q models.ProductQuery, r *Result) string {
	if hint := strings.TrimSpace(q.CategoryHint); hint != "" {
		return hint
	}
	if r.Rates != nil && r.Rates.Record != nil && r.Rates.Record.Category != "" {
		return r.Rates.Record.Category
	}
	if top := r.Classification.Top(); top != nil {
		return top.Category
	}
	return ""
}

func effectiveSavings(rates *models.RateResolution, verdict *models.QualificationVerdict, volume float64) models.SavingsResult {
	if !rates.Found() {
		return models.SavingsResult{
			TradeVolume: volume,
			Reason:      "no duty rate resolved; savings reported as zero",
		}
	}
	if !verdict.Qualified {
		out := savings.Calculate(rates.MFNRate, rates.MFNRate, volume)
		out.Reason = "components do not qualify for preferential treatment; savings reported as zero"
		return out
	}
	return savings.Calculate(rates.MFNRate, rates.PreferentialRate, volume)
}

func (s *Service) review(r *Result) models.ReviewFlag {
	var reasons []string
	if r.Classification.IsNotFound() {
		reasons = append(reasons, "no confident classification; manual classification needed")
	} else if top := r.Classification.Top(); top != nil && top.Confidence < s.reviewThreshold {
		reasons = append(reasons, fmt.Sprintf("top candidate %s at %d%% is below the %d%% review threshold",
			top.Code, top.Confidence, s.reviewThreshold))
	}
	if !r.Rates.Found() {
		reasons = append(reasons, "no duty rate found at any tier")
	}
	if r.Qualification.ThresholdSource == models.ThresholdDefault {
		reasons = append(reasons, fmt.Sprintf("qualification used the default %g%% threshold",
			r.Qualification.ThresholdRequired))
	}

	if len(reasons) == 0 {
		return models.ReviewFlag{}
	}
	return models.ReviewFlag{
		Required:          true,
		Reasons:           reasons,
		RecommendedAction: RecommendedAction,
	}
}

// Fingerprint is a name-based UUID over the request.
func Fingerprint(req Request) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return uuid.NewSHA1(fingerprintSpace, data).String()
}

// Package scorer ranks tariff codes for a set of extracted terms using an
// ordered, explainable rule pipeline.
package scorer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
	"tariff-workers/internal/store"
	"tariff-workers/internal/tariff/matcher"
)

const defaultMaxCandidates = 10

// Scorer is safe for concurrent use; it holds only immutable configuration.
type Scorer struct {
	searcher      store.Searcher
	vocab         *matcher.Vocabulary
	rules         []Rule
	maxCandidates int
	scopeSearch   bool
	logger        logger.Logger
}

type Option func(*Scorer)

// WithRules replaces the default pipeline.
func WithRules(rules []Rule) Option {
	return func(s *Scorer) { s.rules = rules }
}

func WithMaxCandidates(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithScopedSearch passes the category hint down to the store so only
// same-category records are considered.
func WithScopedSearch(scoped bool) Option {
	return func(s *Scorer) { s.scopeSearch = scoped }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Scorer) {
		if log != nil {
			s.logger = log
		}
	}
}

func New(searcher store.Searcher, vocab *matcher.Vocabulary, opts ...Option) *Scorer {
	if vocab == nil {
		vocab = matcher.DefaultVocabulary()
	}
	s := &Scorer{
		searcher:      searcher,
		vocab:         vocab,
		maxCandidates: defaultMaxCandidates,
		logger:        logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = DefaultRules(DefaultWeights(), vocab)
	}
	return s
}

// Classify extracts terms from description and scores them.
func (s *Scorer) Classify(ctx context.Context, description, categoryHint string) (*models.ClassificationResult, error) {
	terms, err := s.vocab.ExtractTerms(description)
	if err != nil {
		return nil, err
	}
	return s.Score(ctx, terms, categoryHint)
}

type candidate struct {
	record  models.TariffCodeRecord
	matched map[string]bool
}

// Score searches the store once per term and ranks every record returned.
// No hits is the NotFound result, not an error. The call fails only when
// every term search failed.
func (s *Scorer) Score(ctx context.Context, terms []string, categoryHint string) (*models.ClassificationResult, error) {
	terms = distinct(terms)
	if len(terms) == 0 {
		return nil, errors.NewInvalidInputError("no search terms")
	}

	scope := ""
	if s.scopeSearch {
		scope = categoryHint
	}

	pool := make(map[string]*candidate)
	var (
		failures int
		lastErr  error
	)
	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := s.searcher.Search(ctx, term, scope)
		if err != nil {
			failures++
			lastErr = err
			s.logger.Warn("term search failed", map[string]interface{}{
				"term":  term,
				"error": err,
			})
			continue
		}
		for _, rec := range recs {
			code, err := store.NormalizeCode(rec.Code)
			if err != nil {
				continue
			}
			rec.Code = code
			c, ok := pool[code]
			if !ok {
				c = &candidate{record: rec, matched: make(map[string]bool)}
				pool[code] = c
			}
			c.matched[term] = true
		}
	}
	if failures == len(terms) {
		return nil, errors.NewStoreUnavailableError("search", lastErr)
	}

	result := &models.ClassificationResult{
		Terms:    terms,
		Chapters: s.vocab.CandidateChapters(categoryHint),
	}

	for _, c := range pool {
		in := Input{
			Terms:        terms,
			Matched:      matchedTerms(terms, c),
			CategoryHint: categoryHint,
			Record:       c.record,
		}
		confidence, steps := Evaluate(s.rules, in)
		result.Candidates = append(result.Candidates, models.Candidate{
			Code:        c.record.Code,
			Description: c.record.Description,
			Category:    c.record.Category,
			Confidence:  confidence,
			Label:       models.ConfidenceLabel(confidence),
			Rationale:   strings.Join(steps, "; "),
			Steps:       steps,
		})
	}

	Rank(result.Candidates)
	if len(result.Candidates) > s.maxCandidates {
		result.Candidates = result.Candidates[:s.maxCandidates]
	}

	if len(result.Candidates) == 0 {
		result.Status = models.ClassificationNotFound
		result.Reason = fmt.Sprintf("no tariff description matched %s; route to manual classification",
			strings.Join(terms, ", "))
		return result, nil
	}

	top := result.Candidates[0]
	result.Status = models.ClassificationFound
	result.Reason = fmt.Sprintf("top candidate %s at %d%% (%s)", top.Code, top.Confidence, top.Label)
	return result, nil
}

// Rank orders candidates by confidence, then shorter code, then code.
func Rank(candidates []models.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if len(a.Code) != len(b.Code) {
			return len(a.Code) < len(b.Code)
		}
		return a.Code < b.Code
	})
}

// matchedTerms keeps term order. A term counts when the store returned the
// record for it or the description contains it.
func matchedTerms(terms []string, c *candidate) []string {
	description := strings.ToLower(c.record.Description)
	var out []string
	for _, term := range terms {
		if c.matched[term] || strings.Contains(description, term) {
			out = append(out, term)
		}
	}
	return out
}

func distinct(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

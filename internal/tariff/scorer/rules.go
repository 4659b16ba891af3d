package scorer

import (
	"fmt"
	"math"
	"strings"

	"tariff-workers/internal/models"
	"tariff-workers/internal/tariff/matcher"
)

// Input is everything a rule may look at. Rules never reach outside it.
type Input struct {
	Terms        []string
	Matched      []string
	CategoryHint string
	Record       models.TariffCodeRecord
}

func (in Input) hinted() bool {
	return strings.TrimSpace(in.CategoryHint) != ""
}

func (in Input) categoryMatches() bool {
	return in.hinted() && strings.EqualFold(strings.TrimSpace(in.Record.Category), strings.TrimSpace(in.CategoryHint))
}

// Rule is one named step of the scoring pipeline. Apply returns the new score
// and a short note, or an empty note when the rule did not fire.
type Rule interface {
	Name() string
	Apply(in Input, score float64) (float64, string)
}

// Weights names every constant used by DefaultRules.
type Weights struct {
	BaseFloor               float64
	BaseCeiling             float64
	CategoryMatchBonus      float64
	StrongTermBonus         float64
	CorroborationBonus      float64
	ChapterHintBonus        float64
	CategoryMismatchPenalty float64
	HintedFloor             float64
	Ceiling                 float64
}

// DefaultWeights are the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		BaseFloor:               30,
		BaseCeiling:             100,
		CategoryMatchBonus:      25,
		StrongTermBonus:         20,
		CorroborationBonus:      15,
		ChapterHintBonus:        5,
		CategoryMismatchPenalty: 10,
		HintedFloor:             60,
		Ceiling:                 95,
	}
}

// DefaultRules builds the fixed pipeline in evaluation order.
func DefaultRules(w Weights, vocab *matcher.Vocabulary) []Rule {
	return []Rule{
		BaseCoverage{Floor: w.BaseFloor, Ceiling: w.BaseCeiling},
		CategoryMatch{Bonus: w.CategoryMatchBonus},
		StrongTerm{Bonus: w.StrongTermBonus, Vocabulary: vocab},
		Corroboration{Bonus: w.CorroborationBonus},
		ChapterHint{Bonus: w.ChapterHintBonus, Vocabulary: vocab},
		CategoryMismatch{Penalty: w.CategoryMismatchPenalty},
		Bounds{HintedFloor: w.HintedFloor, Ceiling: w.Ceiling},
	}
}

// Evaluate runs rules in order from a zero score and returns the rounded
// confidence together with the trail of notes from rules that fired.
func Evaluate(rules []Rule, in Input) (int, []string) {
	var (
		score float64
		steps []string
	)
	for _, r := range rules {
		next, note := r.Apply(in, score)
		score = next
		if note != "" {
			steps = append(steps, note)
		}
	}
	return int(math.Round(clamp(score, 0, 100))), steps
}

// BaseCoverage starts the score at the share of distinct terms matched.
type BaseCoverage struct {
	Floor   float64
	Ceiling float64
}

func (BaseCoverage) Name() string { return "base_coverage" }

func (r BaseCoverage) Apply(in Input, _ float64) (float64, string) {
	if len(in.Terms) == 0 || len(in.Matched) == 0 {
		return 0, "no terms matched"
	}
	coverage := float64(len(in.Matched)) / float64(len(in.Terms)) * 100
	score := clamp(coverage, r.Floor, r.Ceiling)
	return score, fmt.Sprintf("base %s (%d/%d terms)", formatScore(score), len(in.Matched), len(in.Terms))
}

// CategoryMatch rewards a candidate whose category equals the hint.
type CategoryMatch struct {
	Bonus float64
}

func (CategoryMatch) Name() string { return "category_match" }

func (r CategoryMatch) Apply(in Input, score float64) (float64, string) {
	if !in.categoryMatches() {
		return score, ""
	}
	return score + r.Bonus, fmt.Sprintf("+%s category %q matches hint", formatScore(r.Bonus), in.Record.Category)
}

// StrongTerm rewards a strong domain noun present in both the query and the
// candidate description. The hinted category's list is used when a hint is
// given, the candidate's own category otherwise.
type StrongTerm struct {
	Bonus      float64
	Vocabulary *matcher.Vocabulary
}

func (StrongTerm) Name() string { return "strong_term" }

func (r StrongTerm) Apply(in Input, score float64) (float64, string) {
	if r.Vocabulary == nil {
		return score, ""
	}
	category := in.Record.Category
	if in.hinted() {
		category = in.CategoryHint
	}
	description := strings.ToLower(in.Record.Description)
	for _, term := range in.Terms {
		if r.Vocabulary.IsStrongTerm(category, term) && strings.Contains(description, term) {
			return score + r.Bonus, fmt.Sprintf("+%s strong term %q", formatScore(r.Bonus), term)
		}
	}
	return score, ""
}

// Corroboration rewards a description that matched two or more terms.
type Corroboration struct {
	Bonus float64
}

func (Corroboration) Name() string { return "corroboration" }

func (r Corroboration) Apply(in Input, score float64) (float64, string) {
	if len(in.Matched) < 2 {
		return score, ""
	}
	return score + r.Bonus, fmt.Sprintf("+%s corroborated by %s", formatScore(r.Bonus), strings.Join(in.Matched, ", "))
}

// ChapterHint is a coarse tiebreak for codes in a chapter tied to the hint.
type ChapterHint struct {
	Bonus      float64
	Vocabulary *matcher.Vocabulary
}

func (ChapterHint) Name() string { return "chapter_hint" }

func (r ChapterHint) Apply(in Input, score float64) (float64, string) {
	if r.Vocabulary == nil || !in.hinted() || !r.Vocabulary.InCandidateChapter(in.CategoryHint, in.Record.Code) {
		return score, ""
	}
	return score + r.Bonus, fmt.Sprintf("+%s chapter %s fits hint", formatScore(r.Bonus), in.Record.Code[:2])
}

// CategoryMismatch penalizes a hinted query whose candidate sits elsewhere.
// An uncategorized candidate counts as a mismatch.
type CategoryMismatch struct {
	Penalty float64
}

func (CategoryMismatch) Name() string { return "category_mismatch" }

func (r CategoryMismatch) Apply(in Input, score float64) (float64, string) {
	if !in.hinted() || in.categoryMatches() {
		return score, ""
	}
	return score - r.Penalty, fmt.Sprintf("-%s category %q differs from hint", formatScore(r.Penalty), in.Record.Category)
}

// Bounds caps every score at Ceiling and lifts hint-matching candidates to
// HintedFloor.
type Bounds struct {
	HintedFloor float64
	Ceiling     float64
}

func (Bounds) Name() string { return "bounds" }

func (r Bounds) Apply(in Input, score float64) (float64, string) {
	switch {
	case score > r.Ceiling:
		return r.Ceiling, fmt.Sprintf("capped at %s", formatScore(r.Ceiling))
	case in.categoryMatches() && score < r.HintedFloor:
		return r.HintedFloor, fmt.Sprintf("raised to category floor %s", formatScore(r.HintedFloor))
	}
	return score, ""
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func formatScore(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

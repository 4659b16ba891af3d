// Package matcher turns free-text product descriptions into search terms and
// narrows a category hint to the HS chapters worth searching.
package matcher

import (
	"sort"
	"strings"
)

// DefaultStopWords are connector words dropped before the length filter.
var DefaultStopWords = []string{
	"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "are", "this", "that", "from", "they", "have", "will", "can",
	"all", "into", "each", "such", "some", "used", "made", "item", "items",
	"product", "products", "type", "types",
}

// DefaultStrongTerms are high-specificity nouns per category. A strong term
// present in both the query and a candidate description earns a bonus.
var DefaultStrongTerms = map[string][]string{
	"electronics": {"wire", "cable", "conductor", "connector", "circuit", "semiconductor",
		"transistor", "processor", "sensor", "battery", "bluetooth", "wireless", "transformer"},
	"automotive":            {"vehicle", "engine", "brake", "transmission", "suspension", "chassis", "axle"},
	"textiles":              {"fabric", "cotton", "polyester", "woven", "knitted", "yarn", "apparel"},
	"machinery":             {"pump", "valve", "bearing", "motor", "compressor", "turbine", "machine"},
	"chemicals":             {"polymer", "acid", "compound", "resin", "solvent", "plastic"},
	"agriculture":           {"fruit", "grain", "meat", "vegetable", "seed", "livestock"},
	"metals":                {"steel", "copper", "aluminum", "alloy", "iron"},
	"general manufacturing": {"assembly", "component", "fixture"},
}

// DefaultCategoryChapters maps a category to the HS chapter prefixes that
// usually hold its goods.
var DefaultCategoryChapters = map[string][]string{
	"electronics":           {"85", "84"},
	"automotive":            {"87"},
	"textiles":              {"50", "51", "52", "53", "54", "55", "56", "57", "58", "59", "60", "61", "62", "63"},
	"machinery":             {"84"},
	"chemicals":             {"28", "29", "38", "39", "40"},
	"agriculture":           {"01", "02", "03", "04", "07", "08", "10", "12"},
	"metals":                {"72", "73", "74", "76"},
	"general manufacturing": {"39", "73", "94", "96"},
}

// Options configures a Vocabulary. Zero values select the defaults.
type Options struct {
	StopWords        []string
	MinTermLength    int
	MaxTerms         int
	StrongTerms      map[string][]string
	CategoryChapters map[string][]string
}

// Vocabulary is immutable once built and may be shared across goroutines.
type Vocabulary struct {
	stopWords        map[string]struct{}
	minTermLength    int
	maxTerms         int
	strongTerms      map[string]map[string]struct{}
	categoryChapters map[string][]string
}

func NewVocabulary(opts Options) *Vocabulary {
	stopWords := opts.StopWords
	if len(stopWords) == 0 {
		stopWords = DefaultStopWords
	}
	strong := opts.StrongTerms
	if len(strong) == 0 {
		strong = DefaultStrongTerms
	}
	chapters := opts.CategoryChapters
	if len(chapters) == 0 {
		chapters = DefaultCategoryChapters
	}

	v := &Vocabulary{
		stopWords:        make(map[string]struct{}, len(stopWords)),
		minTermLength:    opts.MinTermLength,
		maxTerms:         opts.MaxTerms,
		strongTerms:      make(map[string]map[string]struct{}, len(strong)),
		categoryChapters: make(map[string][]string, len(chapters)),
	}
	if v.minTermLength <= 0 {
		v.minTermLength = 4
	}
	if v.maxTerms <= 0 {
		v.maxTerms = 5
	}

	for _, w := range stopWords {
		v.stopWords[strings.ToLower(w)] = struct{}{}
	}
	for category, terms := range strong {
		set := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			set[strings.ToLower(term)] = struct{}{}
		}
		v.strongTerms[categoryKey(category)] = set
	}
	for category, prefixes := range chapters {
		cp := append([]string(nil), prefixes...)
		sort.Strings(cp)
		v.categoryChapters[categoryKey(category)] = cp
	}

	return v
}

// DefaultVocabulary is NewVocabulary with every option at its default.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(Options{})
}

func (v *Vocabulary) MinTermLength() int { return v.minTermLength }

func (v *Vocabulary) MaxTerms() int { return v.maxTerms }

// CandidateChapters returns the sorted chapter prefixes for category, or nil
// when the category is empty or unknown.
func (v *Vocabulary) CandidateChapters(category string) []string {
	prefixes := v.categoryChapters[categoryKey(category)]
	if len(prefixes) == 0 {
		return nil
	}
	return append([]string(nil), prefixes...)
}

// InCandidateChapter reports whether code starts with one of category's chapters.
func (v *Vocabulary) InCandidateChapter(category, code string) bool {
	for _, prefix := range v.categoryChapters[categoryKey(category)] {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// IsStrongTerm reports whether term is on category's strong list.
func (v *Vocabulary) IsStrongTerm(category, term string) bool {
	set, ok := v.strongTerms[categoryKey(category)]
	if !ok {
		return false
	}
	_, ok = set[strings.ToLower(term)]
	return ok
}

func (v *Vocabulary) isStopWord(word string) bool {
	_, ok := v.stopWords[word]
	return ok
}

func categoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

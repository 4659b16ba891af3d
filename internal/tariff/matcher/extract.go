package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"tariff-workers/internal/common/errors"
)

// ExtractTerms returns at most MaxTerms distinct terms in first-occurrence
// order. Input is lower-cased, punctuation becomes whitespace, stop words and
// tokens shorter than MinTermLength are dropped. When nothing survives, the
// whole normalized description is returned as the single term.
func (v *Vocabulary) ExtractTerms(description string) ([]string, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.NewInvalidInputError("description is empty")
	}

	tokens := Tokenize(description)
	if len(tokens) == 0 {
		return nil, errors.NewInvalidInputError("description has no letters or digits")
	}

	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, v.maxTerms)
	for _, tok := range tokens {
		if v.isStopWord(tok) || utf8.RuneCountInString(tok) < v.minTermLength {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
		if len(terms) == v.maxTerms {
			break
		}
	}

	if len(terms) == 0 {
		return []string{strings.Join(tokens, " ")}, nil
	}
	return terms, nil
}

// Tokenize lower-cases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize is the space-joined token form of s. Cache keys use it so that
// "Copper wire!" and "copper  WIRE" collide.
func Normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateChapters(t *testing.T) {
	v := DefaultVocabulary()

	assert.Equal(t, []string{"84", "85"}, v.CandidateChapters("Electronics"))
	assert.Equal(t, []string{"87"}, v.CandidateChapters(" automotive "))
	assert.Nil(t, v.CandidateChapters("unknown"))
	assert.Nil(t, v.CandidateChapters(""))

	assert.True(t, v.InCandidateChapter("electronics", "854411"))
	assert.False(t, v.InCandidateChapter("electronics", "7408"))
	assert.False(t, v.InCandidateChapter("", "854411"))
}

func TestCandidateChapters_ReturnsCopy(t *testing.T) {
	v := DefaultVocabulary()

	chapters := v.CandidateChapters("electronics")
	chapters[0] = "99"
	assert.Equal(t, []string{"84", "85"}, v.CandidateChapters("electronics"))
}

func TestIsStrongTerm(t *testing.T) {
	v := NewVocabulary(Options{StrongTerms: map[string][]string{"Electronics": {"Cable"}}})

	assert.True(t, v.IsStrongTerm("electronics", "cable"))
	assert.True(t, v.IsStrongTerm("ELECTRONICS", "CABLE"))
	assert.False(t, v.IsStrongTerm("electronics", "wire"))
	assert.False(t, v.IsStrongTerm("textiles", "cable"))
}

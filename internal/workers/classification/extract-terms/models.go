package extractterms

type Input struct {
	Description  string `json:"description"`
	CategoryHint string `json:"categoryHint,omitempty"`
}

type Output struct {
	Terms             []string `json:"terms"`
	CandidateChapters []string `json:"candidateChapters"`
}

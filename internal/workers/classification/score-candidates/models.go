package scorecandidates

import "tariff-workers/internal/models"

// Input carries either a raw description or terms already produced by
// extract-terms. Terms win when both are present.
type Input struct {
	Description  string   `json:"description,omitempty"`
	Terms        []string `json:"terms,omitempty"`
	CategoryHint string   `json:"categoryHint,omitempty"`
}

type Output struct {
	Classification       *models.ClassificationResult `json:"classification"`
	ClassificationStatus string                       `json:"classificationStatus"`
	TopCode              string                       `json:"topCode"`
	TopConfidence        int                          `json:"topConfidence"`
	ConfidenceLabel      string                       `json:"confidenceLabel"`
}

package models

// ProductQuery is the immutable request handed to the classification stages.
type ProductQuery struct {
	Description  string `json:"description"`
	CategoryHint string `json:"categoryHint,omitempty"`
	KnownCode    string `json:"knownCode,omitempty"`
}

// SourceTier identifies which level of the rate cascade produced a record.
type SourceTier string

const (
	TierExact    SourceTier = "exact"
	TierCategory SourceTier = "category"
	TierHeading  SourceTier = "heading"
	TierChapter  SourceTier = "chapter"
	TierNotFound SourceTier = "not_found"
)

// ConfidenceCeiling is the fixed maximum trust assignable to a rate from this tier.
func (t SourceTier) ConfidenceCeiling() int {
	switch t {
	case TierExact:
		return 100
	case TierCategory:
		return 85
	case TierHeading:
		return 70
	case TierChapter:
		return 50
	default:
		return 0
	}
}

// TariffCodeRecord is one harmonized-code entry from the record store.
type TariffCodeRecord struct {
	Code                    string     `json:"code"`
	Description             string     `json:"description"`
	Category                string     `json:"category,omitempty"`
	MFNRate                 float64    `json:"mfnRate"`
	PreferentialRate        float64    `json:"preferentialRate"`
	SourceTier              SourceTier `json:"sourceTier,omitempty"`
	RecordConfidenceCeiling int        `json:"recordConfidenceCeiling"`
	Source                  string     `json:"source,omitempty"`
}

// Classification statuses.
const (
	ClassificationFound    = "classified"
	ClassificationNotFound = "not_found"
)

// Candidate is one scored code. Rationale lists every rule that moved the score.
type Candidate struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Confidence  int      `json:"confidence"`
	Label       string   `json:"label"`
	Rationale   string   `json:"matchRationale"`
	Steps       []string `json:"ruleTrail,omitempty"`
}

// ClassificationResult is ordered by confidence, highest first. An empty
// candidate list is the NotFound terminal state, never an error.
type ClassificationResult struct {
	Status     string      `json:"status"`
	Terms      []string    `json:"terms"`
	Chapters   []string    `json:"candidateChapters,omitempty"`
	Candidates []Candidate `json:"candidates"`
	Reason     string      `json:"reason"`
}

// Top returns the winning candidate, or nil for NotFound.
func (r *ClassificationResult) Top() *Candidate {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// IsNotFound reports whether the result routes to manual classification.
func (r *ClassificationResult) IsNotFound() bool {
	return r == nil || r.Status == ClassificationNotFound
}

// RateResolution is the outcome of the tier cascade. A miss is representable:
// Tier is TierNotFound and ConfidenceCeiling is 0.
type RateResolution struct {
	RequestedCode     string            `json:"requestedCode"`
	MatchedCode       string            `json:"matchedCode,omitempty"`
	Tier              SourceTier        `json:"tier"`
	MFNRate           float64           `json:"mfnRate"`
	PreferentialRate  float64           `json:"preferentialRate"`
	ConfidenceCeiling int               `json:"confidenceCeiling"`
	Label             string            `json:"label"`
	Record            *TariffCodeRecord `json:"record,omitempty"`
	TierFailures      []string          `json:"tierFailures,omitempty"`
	Reason            string            `json:"reason"`
}

// Found reports whether any tier produced a record.
func (r *RateResolution) Found() bool {
	return r != nil && r.Tier != TierNotFound && r.Record != nil
}

// ComponentOrigin is a single declared input and its share of the product value.
type ComponentOrigin struct {
	OriginCountry   string  `json:"originCountry"`
	ValuePercentage float64 `json:"valuePercentage"`
	Description     string  `json:"description,omitempty"`
}

// QualificationVerdict reports regional value content against the category threshold.
type QualificationVerdict struct {
	RegionalValueContent  float64 `json:"regionalValueContent"`
	ThresholdRequired     float64 `json:"thresholdRequired"`
	ThresholdSource       string  `json:"thresholdSource"`
	Category              string  `json:"category,omitempty"`
	Qualified             bool    `json:"qualified"`
	Gap                   float64 `json:"gap"`
	UnaccountedPercentage float64 `json:"unaccountedPercentage"`
	Reason                string  `json:"reason"`
}

// Threshold sources.
const (
	ThresholdFromCategory = "category"
	ThresholdDefault      = "default"
)

// SavingsResult carries annualized and monthly duty savings.
type SavingsResult struct {
	MFNRate          float64 `json:"mfnRate"`
	PreferentialRate float64 `json:"preferentialRate"`
	SavingsRate      float64 `json:"savingsRate"`
	TradeVolume      float64 `json:"tradeVolume"`
	AnnualSavings    float64 `json:"annualSavings"`
	MonthlySavings   float64 `json:"monthlySavings"`
	Reason           string  `json:"reason,omitempty"`
}

// ReviewFlag tells callers whether a licensed broker has to look at the result.
type ReviewFlag struct {
	Required          bool     `json:"required"`
	Reasons           []string `json:"reasons,omitempty"`
	RecommendedAction string   `json:"recommendedAction,omitempty"`
}

// Confidence band labels. Downstream renderers match on these strings.
const (
	LabelVerified      = "Verified"
	LabelCategory      = "Category"
	LabelHeading       = "Heading"
	LabelEstimated     = "Estimated"
	LabelNeedsResearch = "Needs Research"
)

// ConfidenceLabel maps a 0-100 confidence onto its reporting band.
func ConfidenceLabel(confidence int) string {
	switch {
	case confidence >= 95:
		return LabelVerified
	case confidence >= 80:
		return LabelCategory
	case confidence >= 65:
		return LabelHeading
	case confidence >= 40:
		return LabelEstimated
	default:
		return LabelNeedsResearch
	}
}

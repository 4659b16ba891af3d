package classifyandqualify

import (
	"tariff-workers/internal/models"
	"tariff-workers/internal/tariff/pipeline"
)

type Input struct {
	Description  string                   `json:"description"`
	CategoryHint string                   `json:"categoryHint,omitempty"`
	KnownCode    string                   `json:"knownCode,omitempty"`
	Components   []models.ComponentOrigin `json:"components"`
	TradeVolume  float64                  `json:"tradeVolume"`
}

func (in *Input) request() pipeline.Request {
	return pipeline.Request{
		Query: models.ProductQuery{
			Description:  in.Description,
			CategoryHint: in.CategoryHint,
			KnownCode:    in.KnownCode,
		},
		Components:  in.Components,
		TradeVolume: in.TradeVolume,
	}
}

// Output flattens the fields BPMN gateways branch on next to the full result.
type Output struct {
	Result         *pipeline.Result `json:"result"`
	Fingerprint    string           `json:"fingerprint"`
	TopCode        string           `json:"topCode"`
	Qualified      bool             `json:"qualified"`
	AnnualSavings  float64          `json:"annualSavings"`
	ReviewRequired bool             `json:"reviewRequired"`
	ReviewReasons  []string         `json:"reviewReasons"`
}

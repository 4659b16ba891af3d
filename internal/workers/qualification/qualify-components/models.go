package qualifycomponents

import "tariff-workers/internal/models"

type Input struct {
	Components []models.ComponentOrigin `json:"components"`
	Category   string                   `json:"category,omitempty"`
}

type Output struct {
	Qualification        *models.QualificationVerdict `json:"qualification"`
	Qualified            bool                         `json:"qualified"`
	RegionalValueContent float64                      `json:"regionalValueContent"`
	Gap                  float64                      `json:"gap"`
	Bloc                 string                       `json:"bloc"`
}

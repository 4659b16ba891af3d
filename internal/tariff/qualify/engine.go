// Package qualify computes regional value content for a component set and
// checks it against the category threshold of a trade agreement.
package qualify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/models"
)

// sumTolerance absorbs float noise when percentages are meant to total 100.
const sumTolerance = 1e-9

// DefaultThresholds are regional value content minimums per category.
var DefaultThresholds = map[string]float64{
	"textiles":              55,
	"automotive":            75,
	"electronics":           65,
	"machinery":             60,
	"chemicals":             62.5,
	"agriculture":           60,
	"general manufacturing": 62.5,
}

// DefaultAliases map spelled-out country names to ISO codes.
var DefaultAliases = map[string]string{
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"mexico":                   "MX",
	"canada":                   "CA",
	"china":                    "CN",
	"vietnam":                  "VN",
	"germany":                  "DE",
	"japan":                    "JP",
	"south korea":              "KR",
	"india":                    "IN",
}

// Config describes the bloc and its thresholds.
type Config struct {
	BlocName         string
	Members          []string
	Aliases          map[string]string
	Thresholds       map[string]float64
	DefaultThreshold float64
}

// DefaultConfig is the three-member USMCA bloc.
func DefaultConfig() Config {
	return Config{
		BlocName:         "USMCA",
		Members:          []string{"US", "MX", "CA"},
		Aliases:          DefaultAliases,
		Thresholds:       DefaultThresholds,
		DefaultThreshold: 62.5,
	}
}

// Engine is immutable and safe for concurrent use.
type Engine struct {
	blocName         string
	members          map[string]struct{}
	aliases          map[string]string
	thresholds       map[string]float64
	defaultThreshold float64
}

func NewEngine(cfg Config) *Engine {
	if cfg.BlocName == "" {
		cfg.BlocName = "USMCA"
	}
	if len(cfg.Members) == 0 {
		cfg.Members = []string{"US", "MX", "CA"}
	}
	if cfg.Aliases == nil {
		cfg.Aliases = DefaultAliases
	}
	if cfg.Thresholds == nil {
		cfg.Thresholds = DefaultThresholds
	}
	if cfg.DefaultThreshold == 0 {
		cfg.DefaultThreshold = 62.5
	}

	e := &Engine{
		blocName:         cfg.BlocName,
		members:          make(map[string]struct{}, len(cfg.Members)+1),
		aliases:          make(map[string]string, len(cfg.Aliases)),
		thresholds:       make(map[string]float64, len(cfg.Thresholds)),
		defaultThreshold: cfg.DefaultThreshold,
	}
	for _, m := range cfg.Members {
		e.members[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
	}
	e.members[strings.ToUpper(cfg.BlocName)] = struct{}{}
	for name, iso := range cfg.Aliases {
		e.aliases[strings.ToLower(strings.TrimSpace(name))] = strings.ToUpper(iso)
	}
	for category, threshold := range cfg.Thresholds {
		e.thresholds[strings.ToLower(strings.TrimSpace(category))] = threshold
	}
	return e
}

func (e *Engine) BlocName() string { return e.blocName }

// IsMember reports whether origin, an ISO code, country name or the bloc tag,
// belongs to the bloc.
func (e *Engine) IsMember(origin string) bool {
	_, ok := e.members[e.canonical(origin)]
	return ok
}

// Threshold returns the category threshold and whether it came from the table.
func (e *Engine) Threshold(category string) (float64, bool) {
	t, ok := e.thresholds[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return e.defaultThreshold, false
	}
	return t, true
}

// Qualify validates the component set, sums in-bloc percentages and compares
// the total with the category threshold. Sets summing past 100 are rejected;
// sets summing below 100 are accepted and the remainder reported.
func (e *Engine) Qualify(components []models.ComponentOrigin, category string) (*models.QualificationVerdict, error) {
	var total, regional float64
	for i, c := range components {
		p := c.ValuePercentage
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 100 {
			return nil, errors.NewInvalidComponentDataError(
				fmt.Sprintf("component %d (%s) has value percentage %v outside 0-100", i, c.OriginCountry, p))
		}
		total += p
		if e.IsMember(c.OriginCountry) {
			regional += p
		}
	}
	if total > 100+sumTolerance {
		return nil, errors.NewInvalidComponentDataError(
			fmt.Sprintf("component percentages sum to %s%%, more than 100%%", formatPct(total)))
	}

	threshold, known := e.Threshold(category)
	qualified := regional >= threshold-sumTolerance

	v := &models.QualificationVerdict{
		RegionalValueContent:  clean(regional),
		ThresholdRequired:     threshold,
		ThresholdSource:       models.ThresholdFromCategory,
		Category:              category,
		Qualified:             qualified,
		Gap:                   clean(threshold - regional),
		UnaccountedPercentage: math.Max(0, clean(100-total)),
	}
	if !known {
		v.ThresholdSource = models.ThresholdDefault
	}
	v.Reason = e.reason(v)
	return v, nil
}

func (e *Engine) reason(v *models.QualificationVerdict) string {
	status := "not qualified"
	if v.Qualified {
		status = "qualified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%% regional content vs %s%% required: %s, gap %s%%",
		formatPct(v.RegionalValueContent), formatPct(v.ThresholdRequired), status, formatPct(v.Gap))
	if v.ThresholdSource == models.ThresholdDefault {
		if v.Category == "" {
			b.WriteString("; no category given, default threshold applied")
		} else {
			fmt.Fprintf(&b, "; category %q not recognized, default threshold applied", v.Category)
		}
	}
	if v.UnaccountedPercentage > 0 {
		fmt.Fprintf(&b, "; %s%% of value unaccounted for and counted as non-%s",
			formatPct(v.UnaccountedPercentage), e.blocName)
	}
	return b.String()
}

func (e *Engine) canonical(origin string) string {
	origin = strings.TrimSpace(origin)
	if iso, ok := e.aliases[strings.ToLower(origin)]; ok {
		return iso
	}
	return strings.ToUpper(origin)
}

// clean strips summation noise below nine decimals. Reported values keep
// every digit that can move the verdict.
func clean(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

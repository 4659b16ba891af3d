package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tariff-workers/internal/models"
	"tariff-workers/internal/tariff/pipeline"
	"tariff-workers/internal/tariff/rates"
	"tariff-workers/internal/tariff/savings"
)

func termsCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "terms <description>",
		Short: "Extract search terms and candidate chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vocab := pipeline.VocabularyFromConfig(a.cfg.Classification)
			terms, err := vocab.ExtractTerms(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"terms":             terms,
				"candidateChapters": vocab.CandidateChapters(category),
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category hint")
	return cmd
}

func classifyCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Rank tariff code candidates for a product description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.components(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.Classifier.Classify(cmd.Context(), args[0], category)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category hint")
	return cmd
}

func ratesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rates <code> [code...]",
		Short: "Resolve duty rates through the tier cascade",
		Long:  `With one code the resolution is printed; with several the batch and its tier statistics are.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.components(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				res, err := c.Resolver.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			}

			items, err := c.Resolver.ResolveBatch(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"rateBatch": items,
				"tierStats": rates.TierStats(items),
			})
		},
	}
}

func qualifyCmd(a *app) *cobra.Command {
	var (
		category   string
		components []string
	)
	cmd := &cobra.Command{
		Use:     "qualify",
		Short:   "Check regional value content against the bloc threshold",
		Example: `  tariffctl qualify --category electronics --component MX=80 --component CN=20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			origins, err := parseComponents(components)
			if err != nil {
				return err
			}
			c, err := a.components(cmd.Context())
			if err != nil {
				return err
			}
			verdict, err := c.Engine.Qualify(origins, category)
			if err != nil {
				return err
			}
			return printJSON(cmd, verdict)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "product category")
	cmd.Flags().StringArrayVar(&components, "component", nil, "component as ORIGIN=PERCENT, repeatable")
	return cmd
}

func savingsCmd(_ *app) *cobra.Command {
	var mfn, pref, volume float64
	cmd := &cobra.Command{
		Use:   "savings",
		Short: "Annual and monthly duty savings for a rate differential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, savings.Calculate(mfn, pref, volume))
		},
	}
	cmd.Flags().Float64Var(&mfn, "mfn", 0, "MFN rate in percent")
	cmd.Flags().Float64Var(&pref, "preferential", 0, "preferential rate in percent")
	cmd.Flags().Float64Var(&volume, "volume", 0, "annual trade volume")
	return cmd
}

func runCmd(a *app) *cobra.Command {
	var (
		category, knownCode string
		components          []string
		volume              float64
	)
	cmd := &cobra.Command{
		Use:   "run <description>",
		Short: "Run classify-and-qualify end to end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			origins, err := parseComponents(components)
			if err != nil {
				return err
			}
			c, err := a.components(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.Service.ClassifyAndQualify(cmd.Context(), pipeline.Request{
				Query: models.ProductQuery{
					Description:  args[0],
					CategoryHint: category,
					KnownCode:    knownCode,
				},
				Components:  origins,
				TradeVolume: volume,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category hint")
	cmd.Flags().StringVar(&knownCode, "known-code", "", "skip classification and use this code")
	cmd.Flags().StringArrayVar(&components, "component", nil, "component as ORIGIN=PERCENT, repeatable")
	cmd.Flags().Float64Var(&volume, "volume", 0, "annual trade volume")
	return cmd
}

// parseComponents reads ORIGIN=PERCENT pairs. The origin may contain spaces.
func parseComponents(raw []string) ([]models.ComponentOrigin, error) {
	out := make([]models.ComponentOrigin, 0, len(raw))
	for _, r := range raw {
		i := strings.LastIndex(r, "=")
		if i <= 0 {
			return nil, fmt.Errorf("component %q: want ORIGIN=PERCENT", r)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(r[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", r, err)
		}
		out = append(out, models.ComponentOrigin{
			OriginCountry:   strings.TrimSpace(r[:i]),
			ValuePercentage: pct,
		})
	}
	return out, nil
}

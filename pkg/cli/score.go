package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/cli/config"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// scoreInput is an offline scoring request. Each factor lists one value per
// threat (likelihood, impact) or per vulnerability.
type scoreInput struct {
	Likelihood    []float64
	Impact        []float64
	Vulnerability []float64
	Effectiveness []float64
	Config        *model.ScoringConfig
	Catalog       *model.Catalog
	Ranges        []model.ScoringRange
}

type scoreOutput struct {
	Likelihood     float64
	Impact         float64
	Vulnerability  float64
	Inherent       float64
	Rating         string
	Residual       *scoring.ResidualResult
	RatingCalcType types.CalcType
}

func cmdScore() *cli.Command {
	var in scoreInput
	var seedPath string
	var piCalcType string
	var ratingCalcType string

	return &cli.Command{
		Name:  "score",
		Usage: "Compute and classify a risk score offline",
		Flags: []cli.Flag{
			&cli.FloatSliceFlag{
				Name:        "likelihood",
				Aliases:     []string{"l"},
				Usage:       "Likelihood weight, repeat once per threat",
				Destination: &in.Likelihood,
			},
			&cli.FloatSliceFlag{
				Name:        "impact",
				Aliases:     []string{"i"},
				Usage:       "Impact weight, repeat once per threat",
				Destination: &in.Impact,
			},
			&cli.FloatSliceFlag{
				Name:        "vulnerability",
				Aliases:     []string{"v"},
				Usage:       "Vulnerability strength weight, repeat once per vulnerability",
				Destination: &in.Vulnerability,
			},
			&cli.FloatSliceFlag{
				Name:        "effectiveness",
				Aliases:     []string{"e"},
				Usage:       "Effectiveness percentage of an existing control, repeat once per control",
				Destination: &in.Effectiveness,
			},
			&cli.StringFlag{
				Name:        "probability-impact-calc-type",
				Usage:       "Aggregation of per-vulnerability ratings (high, addition or product)",
				Value:       string(types.CalcTypeHighOfAll),
				Destination: &piCalcType,
			},
			&cli.StringFlag{
				Name:        "risk-rating-calc-type",
				Usage:       "Scheme whose ranges classify the score",
				Value:       string(types.CalcTypeProductOfAll),
				Destination: &ratingCalcType,
			},
			&cli.StringFlag{
				Name:        "seed",
				Usage:       "TOML seed file providing catalog floors, scoring section and ranges",
				Destination: &seedPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			piType, err := types.ParseCalcType(piCalcType)
			if err != nil {
				return err
			}
			ratingType, err := types.ParseCalcType(ratingCalcType)
			if err != nil {
				return err
			}
			in.Config = &model.ScoringConfig{
				ProbabilityImpactCalcType: piType,
				RiskRatingCalcType:        ratingType,
			}
			in.Catalog = model.DefaultCatalog()

			var stored []model.ScoringRange
			if seedPath != "" {
				seed, err := config.LoadSeedFile(seedPath)
				if err != nil {
					return err
				}
				if seed.HasCatalog() {
					in.Catalog = seed.Catalog()
				}
				if cfg := seed.ScoringConfig(); cfg != nil && !c.IsSet("probability-impact-calc-type") && !c.IsSet("risk-rating-calc-type") {
					in.Config = cfg
				}
				stored = seed.ScoringRanges()
			}
			if err := in.Config.Validate(); err != nil {
				return err
			}

			in.Ranges = scoring.ActiveRanges(in.Config.RiskRatingCalcType, stored)
			if err := scoring.ValidateCoverage(in.Ranges); err != nil {
				return goerr.Wrap(err, "no usable ranges", goerr.V("calc_type", in.Config.RiskRatingCalcType))
			}

			out, err := computeScore(&in)
			if err != nil {
				return err
			}
			renderScore(os.Stdout, out)
			return nil
		},
	}
}

// computeScore mirrors the assessment: the highest likelihood, the highest of
// the given category impacts, vulnerabilities combined with the probability/impact calc type, and the
// product of the three as the inherent score
func computeScore(in *scoreInput) (*scoreOutput, error) {
	likelihood, err := scoring.Aggregate(in.Likelihood, types.CalcTypeHighOfAll, in.Catalog.MinLikelihoodWeight())
	if err != nil {
		return nil, err
	}
	impact, err := scoring.Aggregate(in.Impact, types.CalcTypeHighOfAll, in.Catalog.MinImpactWeight())
	if err != nil {
		return nil, err
	}
	vulnerability, err := scoring.Aggregate(in.Vulnerability, in.Config.ProbabilityImpactCalcType, in.Catalog.MinVulnerabilityWeight())
	if err != nil {
		return nil, err
	}

	inherent := likelihood * impact * vulnerability
	rating, err := scoring.Classify(inherent, in.Ranges)
	if err != nil {
		return nil, err
	}

	controls := make([]model.ControlLink, len(in.Effectiveness))
	for i, e := range in.Effectiveness {
		controls[i] = model.ControlLink{
			ControlID:     types.ControlID(fmt.Sprintf("CTL-%d", i+1)),
			Effectiveness: model.Float64Ptr(e),
		}
	}
	residual, err := scoring.Residual(inherent, controls, in.Ranges)
	if err != nil {
		return nil, err
	}

	return &scoreOutput{
		Likelihood:     likelihood,
		Impact:         impact,
		Vulnerability:  vulnerability,
		Inherent:       inherent,
		Rating:         rating,
		Residual:       residual,
		RatingCalcType: in.Config.RiskRatingCalcType,
	}, nil
}

func bandColor(label string) *color.Color {
	switch label {
	case scoring.BandLowRisk:
		return color.New(color.FgGreen)
	case scoring.BandHigh:
		return color.New(color.FgYellow)
	case scoring.BandVeryHigh:
		return color.New(color.FgRed)
	case scoring.BandCatastrophic:
		return color.New(color.FgHiRed, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

func renderScore(w io.Writer, out *scoreOutput) {
	label := color.New(color.Faint)

	fmt.Fprintf(w, "%s %g\n", label.Sprint("Likelihood:   "), out.Likelihood)
	fmt.Fprintf(w, "%s %g\n", label.Sprint("Impact:       "), out.Impact)
	fmt.Fprintf(w, "%s %g\n", label.Sprint("Vulnerability:"), out.Vulnerability)
	fmt.Fprintf(w, "%s %g %s\n", label.Sprint("Inherent:     "), out.Inherent,
		bandColor(out.Rating).Sprintf("[%s]", out.Rating))
	fmt.Fprintf(w, "%s %g%%\n", label.Sprint("Controls:     "), out.Residual.Effectiveness)
	fmt.Fprintf(w, "%s %g %s\n", label.Sprint("Residual:     "), out.Residual.Score,
		bandColor(out.Residual.Rating).Sprintf("[%s]", out.Residual.Rating))
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Scheme:       "), out.RatingCalcType.Label())
}

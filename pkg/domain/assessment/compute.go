package assessment

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Result is the outcome of a completed assessment
type Result struct {
	Likelihood    float64 `json:"likelihood"`
	Impact        float64 `json:"impact"`
	Vulnerability float64 `json:"vulnerability"`
	InherentScore float64 `json:"inherentScore"`
	Rating        string  `json:"rating"`
}

// Compute derives the factor figures and the inherent score.
//
// Likelihood is the highest per-threat likelihood. Impact is computed per
// category: the impacts every threat recorded for a category are combined
// with ProbabilityImpactCalcType, and the overall impact is the highest
// category figure. Vulnerability combines the per-vulnerability ratings with
// ProbabilityImpactCalcType. The inherent score is always
// likelihood × impact × vulnerability. Missing values are replaced by the
// floors; a threat without any impact counts as the impact floor in the first
// category, matching what Resume seeds.
func Compute(s State, subj Subject, floors Floors, cfg *model.ScoringConfig) (*Result, error) {
	likelihoods := make([]float64, 0, len(subj.Threats))
	byCategory := make(map[types.ImpactCategory][]float64, len(subj.Categories))

	for _, t := range subj.Threats {
		l, ok := s.Captures.Likelihood[t]
		if !ok {
			l = floors.Likelihood
		}
		likelihoods = append(likelihoods, l)

		captured := s.Captures.Impact[t]
		if len(captured) == 0 && len(subj.Categories) > 0 {
			captured = map[types.ImpactCategory]float64{subj.Categories[0]: floors.Impact}
		}
		for _, c := range subj.Categories {
			if v, ok := captured[c]; ok {
				byCategory[c] = append(byCategory[c], v)
			}
		}
	}

	impacts := make([]float64, 0, len(byCategory))
	for _, c := range subj.Categories {
		values, ok := byCategory[c]
		if !ok {
			continue
		}
		categoryImpact, err := scoring.Aggregate(values, cfg.ProbabilityImpactCalcType, floors.Impact)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to aggregate category impact", goerr.V("category", c))
		}
		impacts = append(impacts, categoryImpact)
	}

	vulns := make([]float64, 0, len(subj.Vulnerabilities))
	for _, v := range subj.Vulnerabilities {
		rating, ok := s.Captures.Vulnerability[v]
		if !ok {
			rating = floors.Vulnerability
		}
		vulns = append(vulns, rating)
	}

	likelihood, err := scoring.Aggregate(likelihoods, types.CalcTypeHighOfAll, floors.Likelihood)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate likelihood")
	}
	impact, err := scoring.Aggregate(impacts, types.CalcTypeHighOfAll, floors.Impact)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate impact")
	}
	vulnerability, err := scoring.Aggregate(vulns, cfg.ProbabilityImpactCalcType, floors.Vulnerability)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate vulnerability")
	}

	return &Result{
		Likelihood:    likelihood,
		Impact:        impact,
		Vulnerability: vulnerability,
		InherentScore: likelihood * impact * vulnerability,
	}, nil
}

// Complete finishes the assessment from the summary step. Every earlier step
// must have been completed, and in strict mode every capture must be present.
// Classification uses the given active ranges; a configuration error blocks
// completion and leaves the state untouched.
func Complete(s State, subj Subject, floors Floors, cfg *model.ScoringConfig, ranges []model.ScoringRange) (State, *Result, error) {
	if s.Step != types.StepSummary {
		return s, nil, goerr.Wrap(model.ErrInvalidTransition, "assessment can only be completed from the summary step",
			goerr.V(model.StepKey, s.Step))
	}

	for _, step := range types.AllSteps() {
		if step == types.StepSummary {
			continue
		}
		if !s.Completed[step] {
			return s, nil, goerr.Wrap(model.ErrIncompleteInput, "every step must be visited before completing",
				goerr.V(model.StepKey, step))
		}
		if s.Mode == types.AssessmentModeStrict {
			if err := Validate(s, subj, step); err != nil {
				return s, nil, err
			}
		}
	}

	result, err := Compute(s, subj, floors, cfg)
	if err != nil {
		return s, nil, err
	}

	rating, err := scoring.Classify(result.InherentScore, ranges)
	if err != nil {
		return s, nil, goerr.Wrap(err, "failed to classify inherent score", goerr.V("score", result.InherentScore))
	}
	result.Rating = rating

	done := s.Clone()
	done.Completed[types.StepSummary] = true
	return done, result, nil
}

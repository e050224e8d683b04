package assessment

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Next marks the current step completed and advances. In strict mode the
// current step's captures must be complete. Summary has no next step; use Complete.
func Next(s State, subj Subject) (State, error) {
	if s.Step >= types.LastStep {
		return s, goerr.Wrap(model.ErrInvalidTransition, "no step after summary, complete the assessment instead",
			goerr.V(model.StepKey, s.Step))
	}
	if s.Mode == types.AssessmentModeStrict {
		if err := Validate(s, subj, s.Step); err != nil {
			return s, err
		}
	}

	next := s.Clone()
	next.Completed[s.Step] = true
	next.Step = s.Step + 1
	return next, nil
}

// Previous moves back one step without touching completion state
func Previous(s State) (State, error) {
	if s.Step <= types.FirstStep {
		return s, goerr.Wrap(model.ErrInvalidTransition, "already at the first step",
			goerr.V(model.StepKey, s.Step))
	}

	prev := s.Clone()
	prev.Step = s.Step - 1
	return prev, nil
}

// GoTo jumps to any step of the wizard
func GoTo(s State, step types.StepID) (State, error) {
	if !step.IsValid() {
		return s, goerr.Wrap(model.ErrInvalidTransition, "unknown step", goerr.V(model.StepKey, step))
	}

	moved := s.Clone()
	moved.Step = step
	return moved, nil
}

// SetLikelihood records the likelihood for a linked threat
func SetLikelihood(s State, subj Subject, threat types.ThreatID, value float64) (State, error) {
	if !subj.hasThreat(threat) {
		return s, goerr.Wrap(model.ErrInvalidCapture, "threat is not linked to the risk", goerr.V("threat_id", threat))
	}
	if value < 0 {
		return s, goerr.Wrap(model.ErrInvalidCapture, "likelihood must not be negative", goerr.V("value", value))
	}

	updated := s.Clone()
	updated.Captures.Likelihood[threat] = value
	return updated, nil
}

// SetImpact records the impact of a linked threat in one category
func SetImpact(s State, subj Subject, threat types.ThreatID, category types.ImpactCategory, value float64) (State, error) {
	if !subj.hasThreat(threat) {
		return s, goerr.Wrap(model.ErrInvalidCapture, "threat is not linked to the risk", goerr.V("threat_id", threat))
	}
	if !subj.hasCategory(category) {
		return s, goerr.Wrap(model.ErrInvalidCapture, "unknown impact category", goerr.V("category", category))
	}
	if value < 0 {
		return s, goerr.Wrap(model.ErrInvalidCapture, "impact must not be negative", goerr.V("value", value))
	}

	updated := s.Clone()
	byCat, ok := updated.Captures.Impact[threat]
	if !ok {
		byCat = make(map[types.ImpactCategory]float64)
		updated.Captures.Impact[threat] = byCat
	}
	byCat[category] = value
	return updated, nil
}

// SetVulnerability records the strength rating of a linked vulnerability
func SetVulnerability(s State, subj Subject, vuln types.VulnerabilityID, value float64) (State, error) {
	if !subj.hasVulnerability(vuln) {
		return s, goerr.Wrap(model.ErrInvalidCapture, "vulnerability is not linked to the risk", goerr.V("vulnerability_id", vuln))
	}
	if value < 0 {
		return s, goerr.Wrap(model.ErrInvalidCapture, "vulnerability rating must not be negative", goerr.V("value", value))
	}

	updated := s.Clone()
	updated.Captures.Vulnerability[vuln] = value
	return updated, nil
}

// Validate checks that the captures required by step are present: a
// likelihood for every threat, at least one category impact for every
// threat, and a rating for every vulnerability.
func Validate(s State, subj Subject, step types.StepID) error {
	switch step {
	case types.StepLikelihood:
		var missing []types.ThreatID
		for _, t := range subj.Threats {
			if _, ok := s.Captures.Likelihood[t]; !ok {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			return goerr.Wrap(model.ErrIncompleteInput, "likelihood is required for every linked threat",
				goerr.V(model.StepKey, step), goerr.V("missing", missing))
		}

	case types.StepImpact:
		var missing []types.ThreatID
		for _, t := range subj.Threats {
			if len(s.Captures.Impact[t]) == 0 {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			return goerr.Wrap(model.ErrIncompleteInput, "impact is required for every linked threat",
				goerr.V(model.StepKey, step), goerr.V("missing", missing))
		}

	case types.StepVulnerability:
		var missing []types.VulnerabilityID
		for _, v := range subj.Vulnerabilities {
			if _, ok := s.Captures.Vulnerability[v]; !ok {
				missing = append(missing, v)
			}
		}
		if len(missing) > 0 {
			return goerr.Wrap(model.ErrIncompleteInput, "rating is required for every linked vulnerability",
				goerr.V(model.StepKey, step), goerr.V("missing", missing))
		}
	}

	return nil
}

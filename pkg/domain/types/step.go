package types

import "fmt"

// StepID is a position in the six-step assessment wizard
type StepID int

const (
	StepRiskContext StepID = iota + 1
	StepLikelihood
	StepImpact
	StepVulnerability
	StepRiskRating
	StepSummary
)

// FirstStep and LastStep bound the wizard
const (
	FirstStep = StepRiskContext
	LastStep  = StepSummary
)

// AllSteps returns every wizard step in order
func AllSteps() []StepID {
	return []StepID{
		StepRiskContext,
		StepLikelihood,
		StepImpact,
		StepVulnerability,
		StepRiskRating,
		StepSummary,
	}
}

// IsValid checks if the step is within the wizard
func (s StepID) IsValid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s StepID) String() string {
	switch s {
	case StepRiskContext:
		return "RiskContext"
	case StepLikelihood:
		return "Likelihood"
	case StepImpact:
		return "Impact"
	case StepVulnerability:
		return "Vulnerability"
	case StepRiskRating:
		return "RiskRating"
	case StepSummary:
		return "Summary"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

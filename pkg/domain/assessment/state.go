// Package assessment implements the six-step risk assessment wizard as an
// explicit state value and pure transition functions. Persistence and
// session handling live in the usecase layer.
package assessment

import (
	"sort"

	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Captures holds the values selected so far
type Captures struct {
	Likelihood    map[types.ThreatID]float64                          `json:"likelihood"`
	Impact        map[types.ThreatID]map[types.ImpactCategory]float64 `json:"impact"`
	Vulnerability map[types.VulnerabilityID]float64                   `json:"vulnerability"`
}

// State is the working state of one in-progress assessment
type State struct {
	Step      types.StepID          `json:"step"`
	Completed map[types.StepID]bool `json:"completed"`
	Mode      types.AssessmentMode  `json:"mode"`
	Captures  Captures              `json:"captures"`
}

// Subject lists what must be captured for a risk
type Subject struct {
	Threats         []types.ThreatID        `json:"threats"`
	Vulnerabilities []types.VulnerabilityID `json:"vulnerabilities"`
	Categories      []types.ImpactCategory  `json:"categories"`
}

// Floors are the lowest catalog weights, substituted for missing values
type Floors struct {
	Likelihood    float64 `json:"likelihood"`
	Impact        float64 `json:"impact"`
	Vulnerability float64 `json:"vulnerability"`
}

// FloorsOf derives floors from the catalog
func FloorsOf(catalog *model.Catalog) Floors {
	return Floors{
		Likelihood:    catalog.MinLikelihoodWeight(),
		Impact:        catalog.MinImpactWeight(),
		Vulnerability: catalog.MinVulnerabilityWeight(),
	}
}

// SubjectOf lists the linked threats and vulnerabilities of risk and the catalog's impact categories
func SubjectOf(risk *model.Risk, catalog *model.Catalog) Subject {
	subj := Subject{
		Threats:         make([]types.ThreatID, 0, len(risk.ThreatLinks)),
		Vulnerabilities: make([]types.VulnerabilityID, 0, len(risk.VulnerabilityLinks)),
		Categories:      append([]types.ImpactCategory(nil), catalog.ImpactCategories()...),
	}
	for _, t := range risk.ThreatLinks {
		subj.Threats = append(subj.Threats, t.ThreatID)
	}
	for _, v := range risk.VulnerabilityLinks {
		subj.Vulnerabilities = append(subj.Vulnerabilities, v.VulnerabilityID)
	}
	return subj
}

func (s Subject) hasThreat(id types.ThreatID) bool {
	for _, t := range s.Threats {
		if t == id {
			return true
		}
	}
	return false
}

func (s Subject) hasVulnerability(id types.VulnerabilityID) bool {
	for _, v := range s.Vulnerabilities {
		if v == id {
			return true
		}
	}
	return false
}

func (s Subject) hasCategory(c types.ImpactCategory) bool {
	for _, cat := range s.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// New returns a fresh state positioned at the first step
func New(mode types.AssessmentMode) State {
	return State{
		Step:      types.FirstStep,
		Completed: make(map[types.StepID]bool),
		Mode:      mode,
		Captures:  newCaptures(),
	}
}

func newCaptures() Captures {
	return Captures{
		Likelihood:    make(map[types.ThreatID]float64),
		Impact:        make(map[types.ThreatID]map[types.ImpactCategory]float64),
		Vulnerability: make(map[types.VulnerabilityID]float64),
	}
}

// Clone deep-copies the state so transitions never share maps
func (s State) Clone() State {
	cloned := State{
		Step:      s.Step,
		Completed: make(map[types.StepID]bool, len(s.Completed)),
		Mode:      s.Mode,
		Captures:  newCaptures(),
	}
	for k, v := range s.Completed {
		cloned.Completed[k] = v
	}
	for k, v := range s.Captures.Likelihood {
		cloned.Captures.Likelihood[k] = v
	}
	for threat, byCat := range s.Captures.Impact {
		m := make(map[types.ImpactCategory]float64, len(byCat))
		for c, v := range byCat {
			m[c] = v
		}
		cloned.Captures.Impact[threat] = m
	}
	for k, v := range s.Captures.Vulnerability {
		cloned.Captures.Vulnerability[k] = v
	}
	return cloned
}

// CompletedSteps returns the completed steps in wizard order
func (s State) CompletedSteps() []types.StepID {
	steps := make([]types.StepID, 0, len(s.Completed))
	for step, done := range s.Completed {
		if done {
			steps = append(steps, step)
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	return steps
}

// IsCompleted reports whether step has been completed
func (s State) IsCompleted(step types.StepID) bool {
	return s.Completed[step]
}

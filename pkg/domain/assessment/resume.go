package assessment

import (
	"sort"

	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Resume builds the working state for opening an assessment on risk.
//
// An assessed (or completed) risk reopens at the summary step with every step
// completed, its captures seeded from the stored per-threat and
// per-vulnerability values; entities without history get the floor so that
// recomputation never works on blank fields. Any other risk reopens at its
// saved position with whatever values were saved.
func Resume(risk *model.Risk, subj Subject, floors Floors, mode types.AssessmentMode) State {
	s := New(mode)

	for _, t := range risk.ThreatLinks {
		if t.Likelihood != nil {
			s.Captures.Likelihood[t.ThreatID] = *t.Likelihood
		}
	}
	for _, e := range risk.ImpactEntries {
		if !subj.hasThreat(e.ThreatID) || !subj.hasCategory(e.Category) {
			continue
		}
		byCat, ok := s.Captures.Impact[e.ThreatID]
		if !ok {
			byCat = make(map[types.ImpactCategory]float64)
			s.Captures.Impact[e.ThreatID] = byCat
		}
		byCat[e.Category] = e.Impact
	}
	for _, v := range risk.VulnerabilityLinks {
		if v.Rating != nil {
			s.Captures.Vulnerability[v.VulnerabilityID] = *v.Rating
		}
	}

	if risk.IsAssessed() {
		for _, step := range types.AllSteps() {
			s.Completed[step] = true
		}
		s.Step = types.StepSummary
		seedDefaults(&s, subj, floors)
		return s
	}

	for _, step := range risk.Progress.CompletedSteps {
		if step.IsValid() {
			s.Completed[step] = true
		}
	}
	if risk.Progress.LastStep.IsValid() {
		s.Step = risk.Progress.LastStep
	}
	return s
}

// seedDefaults fills blanks with floors. A threat without any impact gets the
// floor in its first category only; a single value aggregates to itself under
// every calculation type, so the recomputed score is unchanged.
func seedDefaults(s *State, subj Subject, floors Floors) {
	for _, t := range subj.Threats {
		if _, ok := s.Captures.Likelihood[t]; !ok {
			s.Captures.Likelihood[t] = floors.Likelihood
		}
		if len(s.Captures.Impact[t]) == 0 && len(subj.Categories) > 0 {
			s.Captures.Impact[t] = map[types.ImpactCategory]float64{
				subj.Categories[0]: floors.Impact,
			}
		}
	}
	for _, v := range subj.Vulnerabilities {
		if _, ok := s.Captures.Vulnerability[v]; !ok {
			s.Captures.Vulnerability[v] = floors.Vulnerability
		}
	}
}

// ApplyCaptures writes the working captures and wizard position back into the
// risk's links. The risk is modified in place.
func ApplyCaptures(risk *model.Risk, s State) {
	for i := range risk.ThreatLinks {
		if v, ok := s.Captures.Likelihood[risk.ThreatLinks[i].ThreatID]; ok {
			risk.ThreatLinks[i].Likelihood = model.Float64Ptr(v)
		}
	}
	for i := range risk.VulnerabilityLinks {
		if v, ok := s.Captures.Vulnerability[risk.VulnerabilityLinks[i].VulnerabilityID]; ok {
			risk.VulnerabilityLinks[i].Rating = model.Float64Ptr(v)
		}
	}

	entries := make([]model.ImpactEntry, 0)
	for _, t := range risk.ThreatLinks {
		byCat := s.Captures.Impact[t.ThreatID]
		cats := make([]types.ImpactCategory, 0, len(byCat))
		for c := range byCat {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, c := range cats {
			entries = append(entries, model.ImpactEntry{
				ThreatID: t.ThreatID,
				Category: c,
				Impact:   byCat[c],
			})
		}
	}
	risk.ImpactEntries = entries

	risk.Progress = model.AssessmentProgress{
		LastStep:       s.Step,
		CompletedSteps: s.CompletedSteps(),
	}
}

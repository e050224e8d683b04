package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

type RiskUseCase struct {
	repo    interfaces.Repository
	scoring *ScoringUseCase
}

func NewRiskUseCase(repo interfaces.Repository, scoring *ScoringUseCase) *RiskUseCase {
	return &RiskUseCase{
		repo:    repo,
		scoring: scoring,
	}
}

func (uc *RiskUseCase) List(ctx context.Context) ([]*model.Risk, error) {
	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	return risks, nil
}

func (uc *RiskUseCase) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}
	return risk, nil
}

// Register creates or updates the definition of a risk: title, description
// and links. Scoring outputs of an existing risk are kept, and its residual
// figures are re-derived since the control links may have changed.
func (uc *RiskUseCase) Register(ctx context.Context, def *model.Risk) (*model.Risk, error) {
	if err := validateDefinition(def); err != nil {
		return nil, err
	}

	risk, err := uc.repo.Risk().Get(ctx, def.ID)
	switch {
	case err == nil:
		risk.Title = def.Title
		risk.Description = def.Description
		risk.CategoryID = def.CategoryID
		risk.DepartmentID = def.DepartmentID
		risk.OwnerID = def.OwnerID
		risk.ThreatLinks = mergeThreatLinks(risk.ThreatLinks, def.ThreatLinks)
		risk.VulnerabilityLinks = mergeVulnerabilityLinks(risk.VulnerabilityLinks, def.VulnerabilityLinks)
		risk.ControlLinks = def.ControlLinks

	case errors.Is(err, model.ErrNotFound):
		risk = def
		risk.Status = types.RiskStatusOpen
		risk.AssessmentStatus = types.AssessmentStatusOpen

	default:
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, def.ID))
	}

	var ranges []model.ScoringRange
	if risk.HasCommittedScore() {
		if _, ranges, err = uc.scoring.ActiveRanges(ctx); err != nil {
			return nil, err
		}
	}
	if err := applyResidual(risk, ranges); err != nil {
		return nil, err
	}

	saved, err := uc.repo.Risk().Put(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put risk", goerr.V(model.RiskIDKey, def.ID))
	}
	return saved, nil
}

func validateDefinition(def *model.Risk) error {
	if err := def.ID.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidInput, "invalid risk ID", goerr.V(model.RiskIDKey, def.ID), goerr.V("cause", err.Error()))
	}
	if def.Title == "" {
		return goerr.Wrap(ErrInvalidInput, "risk title is required", goerr.V(model.RiskIDKey, def.ID))
	}

	threats := make(map[types.ThreatID]bool)
	for _, t := range def.ThreatLinks {
		if t.ThreatID == "" || threats[t.ThreatID] {
			return goerr.Wrap(ErrInvalidInput, "threat links must have unique IDs",
				goerr.V(model.RiskIDKey, def.ID), goerr.V("threat_id", t.ThreatID))
		}
		threats[t.ThreatID] = true
	}

	vulns := make(map[types.VulnerabilityID]bool)
	for _, v := range def.VulnerabilityLinks {
		if v.VulnerabilityID == "" || vulns[v.VulnerabilityID] {
			return goerr.Wrap(ErrInvalidInput, "vulnerability links must have unique IDs",
				goerr.V(model.RiskIDKey, def.ID), goerr.V("vulnerability_id", v.VulnerabilityID))
		}
		vulns[v.VulnerabilityID] = true
	}

	controls := make(map[types.ControlID]bool)
	for _, c := range def.ControlLinks {
		if c.ControlID == "" || controls[c.ControlID] {
			return goerr.Wrap(ErrInvalidInput, "control links must have unique IDs",
				goerr.V(model.RiskIDKey, def.ID), goerr.V("control_id", c.ControlID))
		}
		controls[c.ControlID] = true
	}
	return nil
}

// mergeThreatLinks keeps captured likelihoods of threats that stay linked
func mergeThreatLinks(current, next []model.ThreatLink) []model.ThreatLink {
	known := make(map[types.ThreatID]*float64, len(current))
	for _, t := range current {
		known[t.ThreatID] = t.Likelihood
	}
	merged := make([]model.ThreatLink, len(next))
	for i, t := range next {
		merged[i] = t
		if t.Likelihood == nil {
			merged[i].Likelihood = known[t.ThreatID]
		}
	}
	return merged
}

// mergeVulnerabilityLinks keeps captured ratings of vulnerabilities that stay linked
func mergeVulnerabilityLinks(current, next []model.VulnerabilityLink) []model.VulnerabilityLink {
	known := make(map[types.VulnerabilityID]*float64, len(current))
	for _, v := range current {
		known[v.VulnerabilityID] = v.Rating
	}
	merged := make([]model.VulnerabilityLink, len(next))
	for i, v := range next {
		merged[i] = v
		if v.Rating == nil {
			merged[i].Rating = known[v.VulnerabilityID]
		}
	}
	return merged
}

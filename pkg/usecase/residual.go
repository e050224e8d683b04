package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

type ResidualUseCase struct {
	repo    interfaces.Repository
	scoring *ScoringUseCase
}

func NewResidualUseCase(repo interfaces.Repository, scoring *ScoringUseCase) *ResidualUseCase {
	return &ResidualUseCase{
		repo:    repo,
		scoring: scoring,
	}
}

// applyResidual refreshes the control rating and, for risks with a committed
// score, the residual score and rating. Never-assessed risks have no inherent
// score to reduce.
func applyResidual(risk *model.Risk, ranges []model.ScoringRange) error {
	risk.ControlRating = scoring.ControlEffectiveness(risk.ControlLinks)
	if !risk.HasCommittedScore() {
		risk.ResidualRiskRating = 0
		risk.ResidualRating = ""
		return nil
	}

	result, err := scoring.Residual(risk.InherentRiskRating, risk.ControlLinks, ranges)
	if err != nil {
		return goerr.Wrap(err, "failed to derive residual risk", goerr.V(model.RiskIDKey, risk.ID))
	}
	risk.ControlRating = result.Effectiveness
	risk.ResidualRiskRating = result.Score
	risk.ResidualRating = result.Rating
	return nil
}

// UpdateControls replaces the control links of a risk and re-derives its residual figures
func (uc *ResidualUseCase) UpdateControls(ctx context.Context, id types.RiskID, controls []model.ControlLink) (*model.Risk, error) {
	seen := make(map[types.ControlID]bool, len(controls))
	for _, c := range controls {
		if c.ControlID == "" {
			return nil, goerr.Wrap(ErrInvalidInput, "control ID is required")
		}
		if seen[c.ControlID] {
			return nil, goerr.Wrap(ErrInvalidInput, "duplicate control link", goerr.V("control_id", c.ControlID))
		}
		seen[c.ControlID] = true
		if c.Effectiveness != nil && (*c.Effectiveness < 0 || *c.Effectiveness > 100) {
			return nil, goerr.Wrap(ErrInvalidInput, "effectiveness must be between 0 and 100",
				goerr.V("control_id", c.ControlID), goerr.V("effectiveness", *c.Effectiveness))
		}
	}

	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}

	risk.ControlLinks = controls
	return uc.apply(ctx, risk)
}

// Recalculate re-derives the residual figures of a risk from its stored inherent score
func (uc *ResidualUseCase) Recalculate(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}
	return uc.apply(ctx, risk)
}

func (uc *ResidualUseCase) apply(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	var ranges []model.ScoringRange
	if risk.HasCommittedScore() {
		_, active, err := uc.scoring.ActiveRanges(ctx)
		if err != nil {
			return nil, err
		}
		ranges = active
	}

	if err := applyResidual(risk, ranges); err != nil {
		return nil, err
	}

	saved, err := uc.repo.Risk().Put(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put risk", goerr.V(model.RiskIDKey, risk.ID))
	}
	return saved, nil
}

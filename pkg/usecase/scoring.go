package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

type ScoringUseCase struct {
	repo interfaces.Repository
}

func NewScoringUseCase(repo interfaces.Repository) *ScoringUseCase {
	return &ScoringUseCase{repo: repo}
}

// GetConfig returns the stored configuration or the default one
func (uc *ScoringUseCase) GetConfig(ctx context.Context) (*model.ScoringConfig, error) {
	cfg, err := uc.repo.Scoring().GetConfig(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get scoring config")
	}
	if cfg == nil {
		return model.DefaultScoringConfig(), nil
	}
	return cfg, nil
}

// UpdateConfig saves both selectors and re-derives stored ratings
func (uc *ScoringUseCase) UpdateConfig(ctx context.Context, cfg *model.ScoringConfig) (*model.ScoringConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid scoring config", goerr.V("cause", err.Error()))
	}

	if err := uc.repo.Scoring().PutConfig(ctx, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to put scoring config")
	}

	logging.From(ctx).Info("scoring config updated",
		"probability_impact_calc_type", cfg.ProbabilityImpactCalcType,
		"risk_rating_calc_type", cfg.RiskRatingCalcType,
	)

	if _, err := uc.ReclassifyAll(ctx); err != nil {
		return nil, err
	}

	return uc.GetConfig(ctx)
}

// ListRanges returns stored ranges. An empty calcType lists every scheme.
func (uc *ScoringUseCase) ListRanges(ctx context.Context, calcType types.CalcType) ([]model.ScoringRange, error) {
	if calcType != "" && !calcType.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown calculation type", goerr.V(model.CalcTypeKey, calcType))
	}

	ranges, err := uc.repo.Scoring().ListRanges(ctx, calcType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list scoring ranges")
	}
	return ranges, nil
}

// checkSiblings rejects r when it overlaps a stored range of the same scheme
func (uc *ScoringUseCase) checkSiblings(ctx context.Context, r *model.ScoringRange) error {
	siblings, err := uc.repo.Scoring().ListRanges(ctx, r.CalculationType)
	if err != nil {
		return goerr.Wrap(err, "failed to list scoring ranges")
	}

	candidate := []model.ScoringRange{*r}
	for _, s := range siblings {
		if s.ID != r.ID {
			candidate = append(candidate, s)
		}
	}
	return scoring.CheckOverlap(candidate)
}

// CreateRange validates and stores a new range
func (uc *ScoringUseCase) CreateRange(ctx context.Context, r *model.ScoringRange) (*model.ScoringRange, error) {
	created := *r
	created.ID = model.NewScoringRangeID()

	if err := created.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid scoring range", goerr.V("cause", err.Error()))
	}
	if err := uc.checkSiblings(ctx, &created); err != nil {
		return nil, err
	}

	if err := uc.repo.Scoring().PutRange(ctx, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to create scoring range")
	}

	if err := uc.reclassifyIfActive(ctx, created.CalculationType); err != nil {
		return nil, err
	}

	return uc.repo.Scoring().GetRange(ctx, created.ID)
}

// UpdateRange replaces label, bounds and scheme of an existing range
func (uc *ScoringUseCase) UpdateRange(ctx context.Context, r *model.ScoringRange) (*model.ScoringRange, error) {
	existing, err := uc.repo.Scoring().GetRange(ctx, r.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get scoring range", goerr.V(RangeIDKey, r.ID))
	}

	if err := r.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid scoring range", goerr.V("cause", err.Error()))
	}
	if err := uc.checkSiblings(ctx, r); err != nil {
		return nil, err
	}

	if err := uc.repo.Scoring().PutRange(ctx, r); err != nil {
		return nil, goerr.Wrap(err, "failed to update scoring range", goerr.V(RangeIDKey, r.ID))
	}

	if err := uc.reclassifyIfActive(ctx, existing.CalculationType, r.CalculationType); err != nil {
		return nil, err
	}

	return uc.repo.Scoring().GetRange(ctx, r.ID)
}

// DeleteRange removes a range
func (uc *ScoringUseCase) DeleteRange(ctx context.Context, id model.ScoringRangeID) error {
	existing, err := uc.repo.Scoring().GetRange(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to get scoring range", goerr.V(RangeIDKey, id))
	}

	if err := uc.repo.Scoring().DeleteRange(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete scoring range", goerr.V(RangeIDKey, id))
	}

	return uc.reclassifyIfActive(ctx, existing.CalculationType)
}

// ReplaceRanges swaps every stored range of calcType for ranges
func (uc *ScoringUseCase) ReplaceRanges(ctx context.Context, calcType types.CalcType, ranges []model.ScoringRange) ([]model.ScoringRange, error) {
	if !calcType.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "unknown calculation type", goerr.V(model.CalcTypeKey, calcType))
	}

	next := make([]model.ScoringRange, len(ranges))
	for i, r := range ranges {
		r.ID = model.NewScoringRangeID()
		r.CalculationType = calcType
		if err := r.Validate(); err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, "invalid scoring range", goerr.V("cause", err.Error()))
		}
		next[i] = r
	}
	if err := scoring.CheckOverlap(next); err != nil {
		return nil, err
	}

	current, err := uc.repo.Scoring().ListRanges(ctx, calcType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list scoring ranges")
	}
	if err := uc.repo.Scoring().ReplaceRanges(ctx, calcType, next); err != nil {
		return nil, goerr.Wrap(err, "failed to replace scoring ranges", goerr.V(model.CalcTypeKey, calcType))
	}

	logging.From(ctx).Info("scoring ranges replaced",
		"calc_type", calcType,
		"removed", len(current),
		"added", len(next),
	)

	if err := uc.reclassifyIfActive(ctx, calcType); err != nil {
		return nil, err
	}
	return uc.ListRanges(ctx, calcType)
}

// RangesFor returns the validated ranges used to classify scores of calcType
func (uc *ScoringUseCase) RangesFor(ctx context.Context, calcType types.CalcType) ([]model.ScoringRange, error) {
	if !calcType.IsValid() {
		return nil, goerr.Wrap(model.ErrUnknownCalcType, "cannot select scoring ranges", goerr.V(model.CalcTypeKey, calcType))
	}

	stored, err := uc.repo.Scoring().ListRanges(ctx, calcType)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list scoring ranges")
	}

	active := scoring.ActiveRanges(calcType, stored)
	if err := scoring.ValidateCoverage(active); err != nil {
		return nil, goerr.Wrap(err, "scoring ranges are not usable", goerr.V(model.CalcTypeKey, calcType))
	}
	return active, nil
}

// ActiveRanges returns the configuration together with the ranges of its
// risk rating scheme
func (uc *ScoringUseCase) ActiveRanges(ctx context.Context) (*model.ScoringConfig, []model.ScoringRange, error) {
	cfg, err := uc.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	ranges, err := uc.RangesFor(ctx, cfg.RiskRatingCalcType)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ranges, nil
}

// Classify rates score with the ranges of calcType, or of the configured
// scheme when calcType is empty
func (uc *ScoringUseCase) Classify(ctx context.Context, score float64, calcType types.CalcType) (string, error) {
	if score < 0 {
		return "", goerr.Wrap(ErrInvalidInput, "score must not be negative", goerr.V("score", score))
	}

	if calcType == "" {
		cfg, err := uc.GetConfig(ctx)
		if err != nil {
			return "", err
		}
		calcType = cfg.RiskRatingCalcType
	}

	ranges, err := uc.RangesFor(ctx, calcType)
	if err != nil {
		return "", err
	}
	return scoring.Classify(score, ranges)
}

func (uc *ScoringUseCase) reclassifyIfActive(ctx context.Context, calcTypes ...types.CalcType) error {
	cfg, err := uc.GetConfig(ctx)
	if err != nil {
		return err
	}
	for _, ct := range calcTypes {
		if ct == cfg.RiskRatingCalcType {
			_, err := uc.ReclassifyAll(ctx)
			return err
		}
	}
	return nil
}

// ReclassifyAll re-derives rating labels and residual figures of every risk
// with a committed score, including reopened ones saved in progress. It is skipped while the
// active ranges are incomplete, since a partially edited range set must not
// overwrite stored ratings. Returns the number of updated risks.
func (uc *ScoringUseCase) ReclassifyAll(ctx context.Context) (int, error) {
	_, ranges, err := uc.ActiveRanges(ctx)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			logging.From(ctx).Warn("skip re-deriving risk ratings", "reason", err.Error())
			return 0, nil
		}
		return 0, err
	}

	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list risks")
	}

	var updated int
	for _, risk := range risks {
		if !risk.HasCommittedScore() {
			continue
		}

		before := *risk
		rating, err := scoring.Classify(risk.InherentRiskRating, ranges)
		if err != nil {
			return updated, goerr.Wrap(err, "failed to classify risk", goerr.V(model.RiskIDKey, risk.ID))
		}
		risk.RiskRating = rating
		if err := applyResidual(risk, ranges); err != nil {
			return updated, err
		}

		if before.RiskRating == risk.RiskRating &&
			before.ResidualRating == risk.ResidualRating &&
			before.ResidualRiskRating == risk.ResidualRiskRating &&
			before.ControlRating == risk.ControlRating {
			continue
		}

		if _, err := uc.repo.Risk().Put(ctx, risk); err != nil {
			return updated, goerr.Wrap(err, "failed to put risk", goerr.V(model.RiskIDKey, risk.ID))
		}
		updated++
	}

	logging.From(ctx).Info("risk ratings re-derived", "updated", updated, "total", len(risks))
	return updated, nil
}

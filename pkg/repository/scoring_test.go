package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func newRange(label string, low float64, high *float64, calcType types.CalcType) *model.ScoringRange {
	return &model.ScoringRange{
		ID:              model.NewScoringRangeID(),
		Label:           label,
		LowValue:        low,
		HighValue:       high,
		CalculationType: calcType,
	}
}

func runScoringRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("GetConfig returns nil before first save", func(t *testing.T) {
		repo := newRepo(t)
		cfg, err := repo.Scoring().GetConfig(context.Background())
		gt.NoError(t, err).Required()
		gt.Value(t, cfg).Nil()
	})

	t.Run("PutConfig then GetConfig", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Scoring().PutConfig(ctx, &model.ScoringConfig{
			ProbabilityImpactCalcType: types.CalcTypeAdditionOfAll,
			RiskRatingCalcType:        types.CalcTypeHighOfAll,
		})).Required()

		cfg, err := repo.Scoring().GetConfig(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.ProbabilityImpactCalcType).Equal(types.CalcTypeAdditionOfAll)
		gt.Value(t, cfg.RiskRatingCalcType).Equal(types.CalcTypeHighOfAll)
		gt.Bool(t, cfg.UpdatedAt.IsZero()).False()

		gt.NoError(t, repo.Scoring().PutConfig(ctx, model.DefaultScoringConfig())).Required()
		cfg, err = repo.Scoring().GetConfig(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.RiskRatingCalcType).Equal(types.CalcTypeProductOfAll)
	})

	t.Run("ListRanges filters by calculation type and sorts by low value", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, r := range []*model.ScoringRange{
			newRange("High", 11, model.Float64Ptr(50), types.CalcTypeProductOfAll),
			newRange("Low Risk", 0, model.Float64Ptr(10), types.CalcTypeProductOfAll),
			newRange("Catastrophic", 51, nil, types.CalcTypeProductOfAll),
			newRange("Low", 0, nil, types.CalcTypeAdditionOfAll),
		} {
			gt.NoError(t, repo.Scoring().PutRange(ctx, r)).Required()
		}

		product, err := repo.Scoring().ListRanges(ctx, types.CalcTypeProductOfAll)
		gt.NoError(t, err).Required()
		gt.Array(t, product).Length(3)
		gt.Value(t, product[0].Label).Equal("Low Risk")
		gt.Value(t, product[2].Label).Equal("Catastrophic")
		gt.Value(t, product[2].HighValue).Nil()
		gt.Value(t, *product[1].HighValue).Equal(50.0)

		addition, err := repo.Scoring().ListRanges(ctx, types.CalcTypeAdditionOfAll)
		gt.NoError(t, err).Required()
		gt.Array(t, addition).Length(1)

		high, err := repo.Scoring().ListRanges(ctx, types.CalcTypeHighOfAll)
		gt.NoError(t, err).Required()
		gt.Array(t, high).Length(0)

		all, err := repo.Scoring().ListRanges(ctx, "")
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(4)
	})

	t.Run("PutRange updates and preserves CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		r := newRange("Low Risk", 0, model.Float64Ptr(10), types.CalcTypeProductOfAll)
		gt.NoError(t, repo.Scoring().PutRange(ctx, r)).Required()
		first, err := repo.Scoring().GetRange(ctx, r.ID)
		gt.NoError(t, err).Required()

		r.Label = "Minimal"
		r.HighValue = model.Float64Ptr(20)
		gt.NoError(t, repo.Scoring().PutRange(ctx, r)).Required()

		got, err := repo.Scoring().GetRange(ctx, r.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Label).Equal("Minimal")
		gt.Value(t, *got.HighValue).Equal(20.0)
		gt.Bool(t, got.CreatedAt.Equal(first.CreatedAt)).True()
	})

	t.Run("DeleteRange removes range", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		r := newRange("Low Risk", 0, model.Float64Ptr(10), types.CalcTypeProductOfAll)
		gt.NoError(t, repo.Scoring().PutRange(ctx, r)).Required()
		gt.NoError(t, repo.Scoring().DeleteRange(ctx, r.ID)).Required()

		_, err := repo.Scoring().GetRange(ctx, r.ID)
		gt.Error(t, err).Is(model.ErrNotFound)
		gt.Error(t, repo.Scoring().DeleteRange(ctx, r.ID)).Is(model.ErrNotFound)
	})

	t.Run("ReplaceRanges swaps one calculation type only", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		old := newRange("Old", 0, nil, types.CalcTypeProductOfAll)
		other := newRange("Addition", 0, nil, types.CalcTypeAdditionOfAll)
		gt.NoError(t, repo.Scoring().PutRange(ctx, old)).Required()
		gt.NoError(t, repo.Scoring().PutRange(ctx, other)).Required()

		gt.NoError(t, repo.Scoring().ReplaceRanges(ctx, types.CalcTypeProductOfAll, []model.ScoringRange{
			*newRange("Low", 0, model.Float64Ptr(99), types.CalcTypeProductOfAll),
			*newRange("High", 100, nil, types.CalcTypeProductOfAll),
		})).Required()

		product, err := repo.Scoring().ListRanges(ctx, types.CalcTypeProductOfAll)
		gt.NoError(t, err).Required()
		gt.Array(t, product).Length(2)
		gt.Value(t, product[0].Label).Equal("Low")
		gt.Value(t, product[1].Label).Equal("High")

		_, err = repo.Scoring().GetRange(ctx, old.ID)
		gt.Error(t, err).Is(model.ErrNotFound)

		addition, err := repo.Scoring().ListRanges(ctx, types.CalcTypeAdditionOfAll)
		gt.NoError(t, err).Required()
		gt.Array(t, addition).Length(1)
		gt.Value(t, addition[0].ID).Equal(other.ID)
	})

	t.Run("ReplaceRanges rejects ranges without ID and keeps stored ranges", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Scoring().PutRange(ctx, newRange("Kept", 0, nil, types.CalcTypeProductOfAll))).Required()

		err := repo.Scoring().ReplaceRanges(ctx, types.CalcTypeProductOfAll, []model.ScoringRange{
			{Label: "No ID", LowValue: 0, CalculationType: types.CalcTypeProductOfAll},
		})
		gt.Value(t, err).NotNil()

		product, err := repo.Scoring().ListRanges(ctx, types.CalcTypeProductOfAll)
		gt.NoError(t, err).Required()
		gt.Array(t, product).Length(1)
		gt.Value(t, product[0].Label).Equal("Kept")
	})
}

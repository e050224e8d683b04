package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/repository/memory"
	"github.com/secmon-lab/riskassess/pkg/usecase"
)

func TestCatalogUseCase_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("empty repository serves fallback catalog", func(t *testing.T) {
		uc := usecase.New(memory.New())

		catalog, err := uc.Catalog.Load(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, catalog.Likelihoods).Length(len(model.DefaultCatalog().Likelihoods))
		gt.V(t, catalog.MinLikelihoodWeight()).Equal(1.0)
		gt.V(t, catalog.MinImpactWeight()).Equal(2.0)
		gt.V(t, catalog.MinVulnerabilityWeight()).Equal(5.0)
	})

	t.Run("seeded catalog replaces fallback", func(t *testing.T) {
		uc := usecase.New(memory.New())

		seed := &model.Catalog{
			Likelihoods: []model.Likelihood{
				{ID: "high", Label: "High", Weight: 9},
				{ID: "low", Label: "Low", Weight: 3},
			},
			Impacts: []model.Impact{
				{ID: "fin-severe", Label: "Severe", Weight: 20, Category: types.ImpactCategoryFinancial},
				{ID: "any-minor", Label: "Minor", Weight: 4},
			},
			VulnerabilityRatings: []model.VulnerabilityRating{
				{ID: "weak", Label: "Weak", Weight: 2},
			},
			Categories: []types.ImpactCategory{types.ImpactCategoryFinancial, types.ImpactCategorySafety},
		}
		gt.NoError(t, uc.Catalog.Seed(ctx, seed)).Required()

		catalog, err := uc.Catalog.Load(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, catalog.Likelihoods).Length(2)
		gt.V(t, catalog.Likelihoods[0].ID).Equal(types.LikelihoodID("low"))
		gt.V(t, catalog.MinLikelihoodWeight()).Equal(3.0)
		gt.A(t, catalog.Categories).Length(2)

		gt.A(t, catalog.ImpactsFor(types.ImpactCategoryFinancial)).Length(2)
		gt.A(t, catalog.ImpactsFor(types.ImpactCategorySafety)).Length(1)
	})
}

package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func runCatalogRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("empty catalog lists nothing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		likelihoods, err := repo.Catalog().ListLikelihoods(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, likelihoods).Length(0)

		categories, err := repo.Catalog().ListCategories(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, categories).Length(0)
	})

	t.Run("Replace stores entries returned by ascending weight", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		catalog := model.DefaultCatalog()
		// reverse likelihood order to check sorting
		l := catalog.Likelihoods
		for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
			l[i], l[j] = l[j], l[i]
		}
		gt.NoError(t, repo.Catalog().Replace(ctx, catalog)).Required()

		likelihoods, err := repo.Catalog().ListLikelihoods(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, likelihoods).Length(4)
		gt.Value(t, likelihoods[0].ID).Equal(types.LikelihoodID("rare"))
		gt.Value(t, likelihoods[3].Weight).Equal(5.0)

		impacts, err := repo.Catalog().ListImpacts(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, impacts).Length(5)
		gt.Value(t, impacts[4].Label).Equal("High impact")

		ratings, err := repo.Catalog().ListVulnerabilityRatings(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, ratings).Length(3)
		gt.Value(t, ratings[0].Weight).Equal(5.0)

		categories, err := repo.Catalog().ListCategories(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, categories).Equal(types.DefaultImpactCategories())
	})

	t.Run("Replace drops previous entries", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Catalog().Replace(ctx, model.DefaultCatalog())).Required()

		smaller := &model.Catalog{
			Likelihoods: []model.Likelihood{{ID: "low", Label: "Low", Weight: 1}},
			Impacts: []model.Impact{
				{ID: "fin-low", Label: "Low loss", Weight: 2, Category: "financial"},
			},
			VulnerabilityRatings: []model.VulnerabilityRating{{ID: "weak", Label: "Weak", Weight: 5}},
			Categories:           []types.ImpactCategory{"financial"},
		}
		gt.NoError(t, repo.Catalog().Replace(ctx, smaller)).Required()

		likelihoods, err := repo.Catalog().ListLikelihoods(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, likelihoods).Length(1)

		impacts, err := repo.Catalog().ListImpacts(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, impacts).Length(1)
		gt.Value(t, impacts[0].Category).Equal(types.ImpactCategory("financial"))

		categories, err := repo.Catalog().ListCategories(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, categories).Length(1)
	})

	t.Run("Replace rejects invalid catalog", func(t *testing.T) {
		repo := newRepo(t)
		invalid := &model.Catalog{
			Likelihoods: []model.Likelihood{{ID: "rare", Label: "Rare", Weight: 0}},
		}
		gt.Error(t, repo.Catalog().Replace(context.Background(), invalid))
	})
}

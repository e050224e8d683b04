package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"golang.org/x/sync/errgroup"
)

type CatalogUseCase struct {
	repo     interfaces.Repository
	fallback *model.Catalog
}

func NewCatalogUseCase(repo interfaces.Repository, fallback *model.Catalog) *CatalogUseCase {
	return &CatalogUseCase{
		repo:     repo,
		fallback: fallback,
	}
}

// Load reads every catalog collection in parallel. When the repository holds
// no catalog at all the fallback catalog is returned.
func (uc *CatalogUseCase) Load(ctx context.Context) (*model.Catalog, error) {
	catalog := &model.Catalog{}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		items, err := uc.repo.Catalog().ListLikelihoods(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to list likelihoods")
		}
		catalog.Likelihoods = items
		return nil
	})
	eg.Go(func() error {
		items, err := uc.repo.Catalog().ListImpacts(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to list impacts")
		}
		catalog.Impacts = items
		return nil
	})
	eg.Go(func() error {
		items, err := uc.repo.Catalog().ListVulnerabilityRatings(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to list vulnerability ratings")
		}
		catalog.VulnerabilityRatings = items
		return nil
	})
	eg.Go(func() error {
		items, err := uc.repo.Catalog().ListCategories(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to list impact categories")
		}
		catalog.Categories = items
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(catalog.Likelihoods) == 0 && len(catalog.Impacts) == 0 &&
		len(catalog.VulnerabilityRatings) == 0 && len(catalog.Categories) == 0 && uc.fallback != nil {
		return uc.fallback, nil
	}

	return catalog, nil
}

// Seed replaces the stored catalog
func (uc *CatalogUseCase) Seed(ctx context.Context, catalog *model.Catalog) error {
	if err := uc.repo.Catalog().Replace(ctx, catalog); err != nil {
		return goerr.Wrap(err, "failed to seed catalog")
	}
	return nil
}

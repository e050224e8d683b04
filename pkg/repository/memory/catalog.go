package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

type catalogRepository struct {
	mu      sync.RWMutex
	catalog *model.Catalog
}

func newCatalogRepository() *catalogRepository {
	return &catalogRepository{
		catalog: &model.Catalog{},
	}
}

func (r *catalogRepository) ListLikelihoods(ctx context.Context) ([]model.Likelihood, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]model.Likelihood{}, r.catalog.Likelihoods...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Weight < items[j].Weight })
	return items, nil
}

func (r *catalogRepository) ListImpacts(ctx context.Context) ([]model.Impact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]model.Impact{}, r.catalog.Impacts...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Weight < items[j].Weight })
	return items, nil
}

func (r *catalogRepository) ListVulnerabilityRatings(ctx context.Context) ([]model.VulnerabilityRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]model.VulnerabilityRating{}, r.catalog.VulnerabilityRatings...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Weight < items[j].Weight })
	return items, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]types.ImpactCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]types.ImpactCategory{}, r.catalog.Categories...), nil
}

func (r *catalogRepository) Replace(ctx context.Context, catalog *model.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return goerr.Wrap(err, "invalid catalog")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.catalog = &model.Catalog{
		Likelihoods:          append([]model.Likelihood{}, catalog.Likelihoods...),
		Impacts:              append([]model.Impact{}, catalog.Impacts...),
		VulnerabilityRatings: append([]model.VulnerabilityRating{}, catalog.VulnerabilityRatings...),
		Categories:           append([]types.ImpactCategory{}, catalog.Categories...),
	}
	return nil
}

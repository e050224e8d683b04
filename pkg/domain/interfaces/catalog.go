package interfaces

import (
	"context"

	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// CatalogRepository provides the factor reference data. Entries are returned
// in ascending weight order.
type CatalogRepository interface {
	ListLikelihoods(ctx context.Context) ([]model.Likelihood, error)
	ListImpacts(ctx context.Context) ([]model.Impact, error)
	ListVulnerabilityRatings(ctx context.Context) ([]model.VulnerabilityRating, error)
	ListCategories(ctx context.Context) ([]types.ImpactCategory, error)

	// Replace swaps the whole catalog
	Replace(ctx context.Context, catalog *model.Catalog) error
}

package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"gorm.io/gorm"
)

const (
	kindLikelihood    = "likelihood"
	kindImpact        = "impact"
	kindVulnerability = "vulnerability"
	kindCategory      = "category"
)

// catalogEntryRow stores every catalog entry kind in one table
type catalogEntryRow struct {
	Kind     string  `gorm:"primaryKey;size:32"`
	EntryID  string  `gorm:"primaryKey;size:64"`
	Label    string  `gorm:"size:255"`
	Weight   float64 `gorm:"index"`
	Category string  `gorm:"size:64"`
	Position int
}

type catalogRepository struct {
	db     *gorm.DB
	prefix string
}

func (r *catalogRepository) table() string {
	return tableName(r.prefix, "catalog_entries")
}

func (r *catalogRepository) list(ctx context.Context, kind, order string) ([]catalogEntryRow, error) {
	var rows []catalogEntryRow
	err := r.db.WithContext(ctx).Table(r.table()).Where("kind = ?", kind).Order(order).Find(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list catalog entries", goerr.V("kind", kind))
	}
	return rows, nil
}

func (r *catalogRepository) ListLikelihoods(ctx context.Context) ([]model.Likelihood, error) {
	rows, err := r.list(ctx, kindLikelihood, "weight, position")
	if err != nil {
		return nil, err
	}

	items := make([]model.Likelihood, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.Likelihood{ID: types.LikelihoodID(row.EntryID), Label: row.Label, Weight: row.Weight})
	}
	return items, nil
}

func (r *catalogRepository) ListImpacts(ctx context.Context) ([]model.Impact, error) {
	rows, err := r.list(ctx, kindImpact, "weight, position")
	if err != nil {
		return nil, err
	}

	items := make([]model.Impact, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.Impact{
			ID:       types.ImpactID(row.EntryID),
			Label:    row.Label,
			Weight:   row.Weight,
			Category: types.ImpactCategory(row.Category),
		})
	}
	return items, nil
}

func (r *catalogRepository) ListVulnerabilityRatings(ctx context.Context) ([]model.VulnerabilityRating, error) {
	rows, err := r.list(ctx, kindVulnerability, "weight, position")
	if err != nil {
		return nil, err
	}

	items := make([]model.VulnerabilityRating, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.VulnerabilityRating{ID: types.VulnerabilityRatingID(row.EntryID), Label: row.Label, Weight: row.Weight})
	}
	return items, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]types.ImpactCategory, error) {
	rows, err := r.list(ctx, kindCategory, "position")
	if err != nil {
		return nil, err
	}

	categories := make([]types.ImpactCategory, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, types.ImpactCategory(row.EntryID))
	}
	return categories, nil
}

func (r *catalogRepository) Replace(ctx context.Context, catalog *model.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return goerr.Wrap(err, "invalid catalog")
	}

	var rows []catalogEntryRow
	for i, l := range catalog.Likelihoods {
		rows = append(rows, catalogEntryRow{Kind: kindLikelihood, EntryID: string(l.ID), Label: l.Label, Weight: l.Weight, Position: i})
	}
	for i, im := range catalog.Impacts {
		rows = append(rows, catalogEntryRow{Kind: kindImpact, EntryID: string(im.ID), Label: im.Label, Weight: im.Weight, Category: string(im.Category), Position: i})
	}
	for i, v := range catalog.VulnerabilityRatings {
		rows = append(rows, catalogEntryRow{Kind: kindVulnerability, EntryID: string(v.ID), Label: v.Label, Weight: v.Weight, Position: i})
	}
	for i, c := range catalog.Categories {
		rows = append(rows, catalogEntryRow{Kind: kindCategory, EntryID: string(c), Position: i})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.table()).Where("1 = 1").Delete(&catalogEntryRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Table(r.table()).Create(&rows).Error
	})
	if err != nil {
		return goerr.Wrap(err, "failed to replace catalog")
	}
	return nil
}

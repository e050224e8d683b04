package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"gorm.io/gorm"
)

const scoringConfigRowID = 1

type scoringConfigRow struct {
	ID                        int    `gorm:"primaryKey;autoIncrement:false"`
	ProbabilityImpactCalcType string `gorm:"size:32"`
	RiskRatingCalcType        string `gorm:"size:32"`
	UpdatedAt                 time.Time
}

type scoringRangeRow struct {
	ID              string  `gorm:"primaryKey;size:64"`
	Label           string  `gorm:"size:255;not null"`
	LowValue        float64 `gorm:"index:idx_range_type_low,priority:2"`
	HighValue       *float64
	CalculationType string `gorm:"size:32;index:idx_range_type_low,priority:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (row *scoringRangeRow) toModel() model.ScoringRange {
	return model.ScoringRange{
		ID:              model.ScoringRangeID(row.ID),
		Label:           row.Label,
		LowValue:        row.LowValue,
		HighValue:       row.HighValue,
		CalculationType: types.CalcType(row.CalculationType),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

type scoringRepository struct {
	db     *gorm.DB
	prefix string
}

func (r *scoringRepository) configTable() string {
	return tableName(r.prefix, "scoring_configs")
}

func (r *scoringRepository) rangesTable() string {
	return tableName(r.prefix, "scoring_ranges")
}

func (r *scoringRepository) GetConfig(ctx context.Context) (*model.ScoringConfig, error) {
	var row scoringConfigRow
	err := r.db.WithContext(ctx).Table(r.configTable()).Where("id = ?", scoringConfigRowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get scoring config")
	}

	return &model.ScoringConfig{
		ProbabilityImpactCalcType: types.CalcType(row.ProbabilityImpactCalcType),
		RiskRatingCalcType:        types.CalcType(row.RiskRatingCalcType),
		UpdatedAt:                 row.UpdatedAt,
	}, nil
}

func (r *scoringRepository) PutConfig(ctx context.Context, cfg *model.ScoringConfig) error {
	row := &scoringConfigRow{
		ID:                        scoringConfigRowID,
		ProbabilityImpactCalcType: string(cfg.ProbabilityImpactCalcType),
		RiskRatingCalcType:        string(cfg.RiskRatingCalcType),
		UpdatedAt:                 time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Table(r.configTable()).Save(row).Error; err != nil {
		return goerr.Wrap(err, "failed to put scoring config")
	}
	return nil
}

func (r *scoringRepository) ListRanges(ctx context.Context, calcType types.CalcType) ([]model.ScoringRange, error) {
	query := r.db.WithContext(ctx).Table(r.rangesTable())
	if calcType != "" {
		query = query.Where("calculation_type = ?", string(calcType))
	}

	var rows []scoringRangeRow
	if err := query.Order("low_value").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list scoring ranges", goerr.V(model.CalcTypeKey, calcType))
	}

	ranges := make([]model.ScoringRange, 0, len(rows))
	for i := range rows {
		ranges = append(ranges, rows[i].toModel())
	}
	return ranges, nil
}

func (r *scoringRepository) GetRange(ctx context.Context, id model.ScoringRangeID) (*model.ScoringRange, error) {
	var row scoringRangeRow
	err := r.db.WithContext(ctx).Table(r.rangesTable()).Where("id = ?", id.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "scoring range not found", goerr.V("range_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get scoring range", goerr.V("range_id", id))
	}
	sr := row.toModel()
	return &sr, nil
}

func (r *scoringRepository) PutRange(ctx context.Context, sr *model.ScoringRange) error {
	if sr.ID == "" {
		return goerr.New("scoring range ID is required")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := &scoringRangeRow{
		ID:              sr.ID.String(),
		Label:           sr.Label,
		LowValue:        sr.LowValue,
		HighValue:       sr.HighValue,
		CalculationType: string(sr.CalculationType),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing scoringRangeRow
		err := tx.Table(r.rangesTable()).Where("id = ?", row.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Table(r.rangesTable()).Create(row).Error
		case err != nil:
			return err
		}

		row.CreatedAt = existing.CreatedAt
		return tx.Table(r.rangesTable()).Save(row).Error
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put scoring range", goerr.V("range_id", sr.ID))
	}
	return nil
}

func (r *scoringRepository) DeleteRange(ctx context.Context, id model.ScoringRangeID) error {
	result := r.db.WithContext(ctx).Table(r.rangesTable()).Where("id = ?", id.String()).Delete(&scoringRangeRow{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete scoring range", goerr.V("range_id", id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(model.ErrNotFound, "scoring range not found", goerr.V("range_id", id))
	}
	return nil
}

func (r *scoringRepository) ReplaceRanges(ctx context.Context, calcType types.CalcType, ranges []model.ScoringRange) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := make([]scoringRangeRow, len(ranges))
	for i, sr := range ranges {
		if sr.ID == "" {
			return goerr.New("scoring range ID is required", goerr.V("label", sr.Label))
		}
		rows[i] = scoringRangeRow{
			ID:              sr.ID.String(),
			Label:           sr.Label,
			LowValue:        sr.LowValue,
			HighValue:       sr.HighValue,
			CalculationType: string(calcType),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.rangesTable()).Where("calculation_type = ?", string(calcType)).Delete(&scoringRangeRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Table(r.rangesTable()).Create(&rows).Error
	})
	if err != nil {
		return goerr.Wrap(err, "failed to replace scoring ranges", goerr.V(model.CalcTypeKey, calcType))
	}
	return nil
}

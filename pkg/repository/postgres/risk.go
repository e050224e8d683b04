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

type riskRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	Title        string `gorm:"not null"`
	Description  string `gorm:"type:text"`
	CategoryID   string `gorm:"size:64"`
	DepartmentID string `gorm:"size:64"`
	OwnerID      string `gorm:"size:64"`

	ThreatLinks        []model.ThreatLink        `gorm:"type:jsonb;serializer:json"`
	ImpactEntries      []model.ImpactEntry       `gorm:"type:jsonb;serializer:json"`
	VulnerabilityLinks []model.VulnerabilityLink `gorm:"type:jsonb;serializer:json"`
	ControlLinks       []model.ControlLink       `gorm:"type:jsonb;serializer:json"`
	Progress           model.AssessmentProgress  `gorm:"type:jsonb;serializer:json"`

	LikelihoodScore    float64
	ImpactScore        float64
	VulnerabilityScore float64
	InherentRiskRating float64
	RiskRating         string `gorm:"size:128"`
	ResidualRiskRating float64
	ResidualRating     string `gorm:"size:128"`
	ControlRating      float64

	Status           string `gorm:"size:32;index"`
	AssessmentStatus string `gorm:"size:32;index"`
	AssessmentDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func toRiskRow(r *model.Risk) *riskRow {
	return &riskRow{
		ID:                 string(r.ID),
		Title:              r.Title,
		Description:        r.Description,
		CategoryID:         r.CategoryID,
		DepartmentID:       r.DepartmentID,
		OwnerID:            r.OwnerID,
		ThreatLinks:        r.ThreatLinks,
		ImpactEntries:      r.ImpactEntries,
		VulnerabilityLinks: r.VulnerabilityLinks,
		ControlLinks:       r.ControlLinks,
		Progress:           r.Progress,
		LikelihoodScore:    r.LikelihoodScore,
		ImpactScore:        r.ImpactScore,
		VulnerabilityScore: r.VulnerabilityScore,
		InherentRiskRating: r.InherentRiskRating,
		RiskRating:         r.RiskRating,
		ResidualRiskRating: r.ResidualRiskRating,
		ResidualRating:     r.ResidualRating,
		ControlRating:      r.ControlRating,
		Status:             string(r.Status),
		AssessmentStatus:   string(r.AssessmentStatus),
		AssessmentDate:     r.AssessmentDate,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (row *riskRow) toModel() *model.Risk {
	return &model.Risk{
		ID:                 types.RiskID(row.ID),
		Title:              row.Title,
		Description:        row.Description,
		CategoryID:         row.CategoryID,
		DepartmentID:       row.DepartmentID,
		OwnerID:            row.OwnerID,
		ThreatLinks:        row.ThreatLinks,
		ImpactEntries:      row.ImpactEntries,
		VulnerabilityLinks: row.VulnerabilityLinks,
		ControlLinks:       row.ControlLinks,
		Progress:           row.Progress,
		LikelihoodScore:    row.LikelihoodScore,
		ImpactScore:        row.ImpactScore,
		VulnerabilityScore: row.VulnerabilityScore,
		InherentRiskRating: row.InherentRiskRating,
		RiskRating:         row.RiskRating,
		ResidualRiskRating: row.ResidualRiskRating,
		ResidualRating:     row.ResidualRating,
		ControlRating:      row.ControlRating,
		Status:             types.RiskStatus(row.Status),
		AssessmentStatus:   types.AssessmentStatus(row.AssessmentStatus),
		AssessmentDate:     row.AssessmentDate,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

type riskRepository struct {
	db     *gorm.DB
	prefix string
}

func (r *riskRepository) table() string {
	return tableName(r.prefix, "risks")
}

func (r *riskRepository) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	var row riskRow
	err := r.db.WithContext(ctx).Table(r.table()).Where("id = ?", string(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(model.RiskIDKey, id))
	}
	return row.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	var rows []riskRow
	if err := r.db.WithContext(ctx).Table(r.table()).Order("id").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}

	risks := make([]*model.Risk, 0, len(rows))
	for i := range rows {
		risks = append(risks, rows[i].toModel())
	}
	return risks, nil
}

func (r *riskRepository) Put(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	if err := risk.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk ID")
	}

	row := toRiskRow(risk)
	now := time.Now().UTC().Truncate(time.Microsecond)
	row.CreatedAt = now
	row.UpdatedAt = now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing riskRow
		err := tx.Table(r.table()).Where("id = ?", row.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Table(r.table()).Create(row).Error
		case err != nil:
			return err
		}

		row.CreatedAt = existing.CreatedAt
		return tx.Table(r.table()).Save(row).Error
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put risk", goerr.V(model.RiskIDKey, risk.ID))
	}

	return row.toModel(), nil
}

func (r *riskRepository) Delete(ctx context.Context, id types.RiskID) error {
	result := r.db.WithContext(ctx).Table(r.table()).Where("id = ?", string(id)).Delete(&riskRow{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete risk", goerr.V(model.RiskIDKey, id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
	}
	return nil
}

package interfaces

import (
	"context"

	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// ScoringRepository stores the scoring configuration and rating ranges
type ScoringRepository interface {
	// GetConfig returns the stored configuration, or nil if none has been saved
	GetConfig(ctx context.Context) (*model.ScoringConfig, error)
	PutConfig(ctx context.Context, cfg *model.ScoringConfig) error

	// ListRanges returns ranges ordered by LowValue. An empty calcType returns all ranges.
	ListRanges(ctx context.Context, calcType types.CalcType) ([]model.ScoringRange, error)
	// GetRange returns model.ErrNotFound if the range does not exist
	GetRange(ctx context.Context, id model.ScoringRangeID) (*model.ScoringRange, error)
	PutRange(ctx context.Context, r *model.ScoringRange) error
	DeleteRange(ctx context.Context, id model.ScoringRangeID) error
	// ReplaceRanges atomically swaps every range of calcType for ranges.
	// On failure the previously stored ranges are left in place.
	ReplaceRanges(ctx context.Context, calcType types.CalcType, ranges []model.ScoringRange) error
}

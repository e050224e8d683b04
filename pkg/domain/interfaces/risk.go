package interfaces

import (
	"context"

	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// RiskRepository stores risks together with their links and scoring outputs
type RiskRepository interface {
	// Get retrieves a risk by ID. Returns model.ErrNotFound if it does not exist.
	Get(ctx context.Context, id types.RiskID) (*model.Risk, error)

	// List retrieves all risks ordered by ID
	List(ctx context.Context) ([]*model.Risk, error)

	// Put creates or replaces a risk. CreatedAt is preserved for existing risks.
	Put(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Delete deletes a risk by ID
	Delete(ctx context.Context, id types.RiskID) error
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

type riskRepository struct {
	mu    sync.RWMutex
	risks map[types.RiskID]*model.Risk
}

func newRiskRepository() *riskRepository {
	return &riskRepository{
		risks: make(map[types.RiskID]*model.Risk),
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float64Ptr(*v)
}

func copyRisk(r *model.Risk) *model.Risk {
	copied := *r

	if r.ThreatLinks != nil {
		copied.ThreatLinks = make([]model.ThreatLink, len(r.ThreatLinks))
		for i, l := range r.ThreatLinks {
			l.Likelihood = copyFloat(l.Likelihood)
			copied.ThreatLinks[i] = l
		}
	}
	if r.ImpactEntries != nil {
		copied.ImpactEntries = make([]model.ImpactEntry, len(r.ImpactEntries))
		copy(copied.ImpactEntries, r.ImpactEntries)
	}
	if r.VulnerabilityLinks != nil {
		copied.VulnerabilityLinks = make([]model.VulnerabilityLink, len(r.VulnerabilityLinks))
		for i, l := range r.VulnerabilityLinks {
			l.Rating = copyFloat(l.Rating)
			copied.VulnerabilityLinks[i] = l
		}
	}
	if r.ControlLinks != nil {
		copied.ControlLinks = make([]model.ControlLink, len(r.ControlLinks))
		for i, l := range r.ControlLinks {
			l.Effectiveness = copyFloat(l.Effectiveness)
			copied.ControlLinks[i] = l
		}
	}
	if r.Progress.CompletedSteps != nil {
		copied.Progress.CompletedSteps = make([]types.StepID, len(r.Progress.CompletedSteps))
		copy(copied.Progress.CompletedSteps, r.Progress.CompletedSteps)
	}
	if r.AssessmentDate != nil {
		d := *r.AssessmentDate
		copied.AssessmentDate = &d
	}

	return &copied
}

func (r *riskRepository) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
	}

	// Return a copy to prevent external modification
	return copyRisk(risk), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.risks))
	for _, risk := range r.risks {
		risks = append(risks, copyRisk(risk))
	}
	sort.Slice(risks, func(i, j int) bool { return risks[i].ID < risks[j].ID })

	return risks, nil
}

func (r *riskRepository) Put(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	if err := risk.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyRisk(risk)
	stored.UpdatedAt = now
	if existing, ok := r.risks[risk.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}

	r.risks[stored.ID] = stored
	return copyRisk(stored), nil
}

func (r *riskRepository) Delete(ctx context.Context, id types.RiskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.risks[id]; !exists {
		return goerr.Wrap(model.ErrNotFound, "risk not found", goerr.V(model.RiskIDKey, id))
	}

	delete(r.risks, id)
	return nil
}

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

type scoringRepository struct {
	mu     sync.RWMutex
	config *model.ScoringConfig
	ranges map[model.ScoringRangeID]*model.ScoringRange
}

func newScoringRepository() *scoringRepository {
	return &scoringRepository{
		ranges: make(map[model.ScoringRangeID]*model.ScoringRange),
	}
}

func copyRange(r *model.ScoringRange) *model.ScoringRange {
	copied := *r
	copied.HighValue = copyFloat(r.HighValue)
	return &copied
}

func (r *scoringRepository) GetConfig(ctx context.Context) (*model.ScoringConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.config == nil {
		return nil, nil
	}
	cfg := *r.config
	return &cfg, nil
}

func (r *scoringRepository) PutConfig(ctx context.Context, cfg *model.ScoringConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *cfg
	stored.UpdatedAt = time.Now().UTC()
	r.config = &stored
	return nil
}

func (r *scoringRepository) ListRanges(ctx context.Context, calcType types.CalcType) ([]model.ScoringRange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ranges := make([]model.ScoringRange, 0, len(r.ranges))
	for _, sr := range r.ranges {
		if calcType != "" && sr.CalculationType != calcType {
			continue
		}
		ranges = append(ranges, *copyRange(sr))
	}
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].LowValue < ranges[j].LowValue })

	return ranges, nil
}

func (r *scoringRepository) GetRange(ctx context.Context, id model.ScoringRangeID) (*model.ScoringRange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sr, exists := r.ranges[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "scoring range not found", goerr.V("range_id", id))
	}
	return copyRange(sr), nil
}

func (r *scoringRepository) PutRange(ctx context.Context, sr *model.ScoringRange) error {
	if sr.ID == "" {
		return goerr.New("scoring range ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyRange(sr)
	stored.UpdatedAt = now
	if existing, ok := r.ranges[sr.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	r.ranges[stored.ID] = stored
	return nil
}

func (r *scoringRepository) DeleteRange(ctx context.Context, id model.ScoringRangeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ranges[id]; !exists {
		return goerr.Wrap(model.ErrNotFound, "scoring range not found", goerr.V("range_id", id))
	}
	delete(r.ranges, id)
	return nil
}

func (r *scoringRepository) ReplaceRanges(ctx context.Context, calcType types.CalcType, ranges []model.ScoringRange) error {
	for i := range ranges {
		if ranges[i].ID == "" {
			return goerr.New("scoring range ID is required", goerr.V("label", ranges[i].Label))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sr := range r.ranges {
		if sr.CalculationType == calcType {
			delete(r.ranges, id)
		}
	}

	now := time.Now().UTC()
	for i := range ranges {
		stored := copyRange(&ranges[i])
		stored.CalculationType = calcType
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.ranges[stored.ID] = stored
	}
	return nil
}

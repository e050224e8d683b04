package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// ScoringConfig is the process-wide selection of aggregation types
type ScoringConfig struct {
	// ProbabilityImpactCalcType combines per-threat likelihood and impact figures
	ProbabilityImpactCalcType types.CalcType `json:"probabilityImpactCalcType"`
	// RiskRatingCalcType selects the scheme, and therefore the range set, used to rate scores
	RiskRatingCalcType types.CalcType `json:"riskRatingCalcType"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// DefaultScoringConfig is used until an administrator saves a configuration
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		ProbabilityImpactCalcType: types.CalcTypeHighOfAll,
		RiskRatingCalcType:        types.CalcTypeProductOfAll,
	}
}

// Validate checks both selectors
func (c *ScoringConfig) Validate() error {
	if !c.ProbabilityImpactCalcType.IsValid() {
		return goerr.Wrap(ErrUnknownCalcType, "invalid probability/impact calculation type",
			goerr.V("calc_type", c.ProbabilityImpactCalcType))
	}
	if !c.RiskRatingCalcType.IsValid() {
		return goerr.Wrap(ErrUnknownCalcType, "invalid risk rating calculation type",
			goerr.V("calc_type", c.RiskRatingCalcType))
	}
	return nil
}

// ScoringRangeID identifies a scoring range
type ScoringRangeID string

// NewScoringRangeID generates a new random range ID
func NewScoringRangeID() ScoringRangeID {
	return ScoringRangeID(uuid.New().String())
}

func (id ScoringRangeID) String() string {
	return string(id)
}

// ScoringRange maps a numeric interval to a rating band label. HighValue is
// nil for lower-bound-only ranges.
type ScoringRange struct {
	ID              ScoringRangeID `json:"id"`
	Label           string         `json:"label"`
	LowValue        float64        `json:"lowValue"`
	HighValue       *float64       `json:"highValue,omitempty"`
	CalculationType types.CalcType `json:"calculationType"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Contains reports whether score lies within the range bounds
func (r *ScoringRange) Contains(score float64) bool {
	if score < r.LowValue {
		return false
	}
	return r.HighValue == nil || score <= *r.HighValue
}

// Validate checks the range on its own; overlap with siblings is checked by the scoring package
func (r *ScoringRange) Validate() error {
	if r.Label == "" {
		return goerr.New("scoring range label is required")
	}
	if !r.CalculationType.IsValid() {
		return goerr.Wrap(ErrUnknownCalcType, "invalid scoring range calculation type",
			goerr.V("calc_type", r.CalculationType))
	}
	if r.LowValue < 0 {
		return goerr.New("scoring range low value must not be negative",
			goerr.V("label", r.Label), goerr.V("low", r.LowValue))
	}
	if r.HighValue != nil && *r.HighValue < r.LowValue {
		return goerr.New("scoring range high value must not be below low value",
			goerr.V("label", r.Label), goerr.V("low", r.LowValue), goerr.V("high", *r.HighValue))
	}
	return nil
}

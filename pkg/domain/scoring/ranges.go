package scoring

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Default band labels of the reference scale
const (
	BandLowRisk      = "Low Risk"
	BandHigh         = "High"
	BandVeryHigh     = "Very High"
	BandCatastrophic = "Catastrophic"
)

// DefaultRanges returns the reference four-band scale (0-10, 11-50, 51-99,
// 100-500). It is calibrated for the multiplicative score, so it only exists
// for the Product of all scheme; other schemes must be configured explicitly.
func DefaultRanges(calcType types.CalcType) []model.ScoringRange {
	if calcType != types.CalcTypeProductOfAll {
		return nil
	}

	bounded := func(id, label string, low, high float64) model.ScoringRange {
		return model.ScoringRange{
			ID:              model.ScoringRangeID(id),
			Label:           label,
			LowValue:        low,
			HighValue:       model.Float64Ptr(high),
			CalculationType: calcType,
		}
	}

	return []model.ScoringRange{
		bounded("default-low-risk", BandLowRisk, 0, 10),
		bounded("default-high", BandHigh, 11, 50),
		bounded("default-very-high", BandVeryHigh, 51, 99),
		bounded("default-catastrophic", BandCatastrophic, 100, 500),
	}
}

// ActiveRanges picks the ranges stored for calcType, falling back to the
// default scale when none are stored.
func ActiveRanges(calcType types.CalcType, stored []model.ScoringRange) []model.ScoringRange {
	var active []model.ScoringRange
	for _, r := range stored {
		if r.CalculationType == calcType {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return DefaultRanges(calcType)
	}
	return active
}

// sortAscending returns a copy of ranges ordered by LowValue
func sortAscending(ranges []model.ScoringRange) []model.ScoringRange {
	sorted := make([]model.ScoringRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LowValue < sorted[j].LowValue
	})
	return sorted
}

// CheckOverlap returns ErrRangeOverlap when any two ranges share a score.
// Lower-bound-only ranges never overlap as long as their lower bounds differ.
func CheckOverlap(ranges []model.ScoringRange) error {
	sorted := sortAscending(ranges)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.LowValue == prev.LowValue {
			return goerr.Wrap(model.ErrRangeOverlap, "scoring ranges share a lower bound",
				goerr.V("first", prev.Label), goerr.V("second", cur.Label), goerr.V("low", cur.LowValue))
		}
		if prev.HighValue != nil && *prev.HighValue >= cur.LowValue {
			return goerr.Wrap(model.ErrRangeOverlap, "scoring ranges overlap",
				goerr.V("first", prev.Label), goerr.V("second", cur.Label))
		}
	}
	return nil
}

// ValidateCoverage checks that ranges of one calculation type are
// non-overlapping and cover every non-negative score: the lowest range starts
// at zero and each bounded range is followed by one starting at its upper
// bound + 1. Scores above the top bound are rated with the top band.
func ValidateCoverage(ranges []model.ScoringRange) error {
	if len(ranges) == 0 {
		return goerr.Wrap(model.ErrRangesNotConfigured, "no scoring ranges to validate")
	}

	calcType := ranges[0].CalculationType
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return goerr.Wrap(model.ErrConfiguration, "invalid scoring range", goerr.V("cause", err.Error()), goerr.V("label", r.Label))
		}
		if r.CalculationType != calcType {
			return goerr.Wrap(model.ErrConfiguration, "scoring ranges mix calculation types",
				goerr.V("expected", calcType), goerr.V("actual", r.CalculationType))
		}
	}

	if err := CheckOverlap(ranges); err != nil {
		return err
	}

	sorted := sortAscending(ranges)
	if sorted[0].LowValue != 0 {
		return goerr.Wrap(model.ErrRangesNotCovering, "lowest scoring range must start at zero",
			goerr.V("label", sorted[0].Label), goerr.V("low", sorted[0].LowValue))
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.HighValue != nil && cur.LowValue != *prev.HighValue+1 {
			return goerr.Wrap(model.ErrRangesNotCovering, "gap between scoring ranges",
				goerr.V("after", prev.Label), goerr.V("high", *prev.HighValue),
				goerr.V("next", cur.Label), goerr.V("low", cur.LowValue))
		}
	}
	return nil
}

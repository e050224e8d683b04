// Package scoring holds the pure scoring functions: aggregation of factor
// values, classification of scores into rating bands, and residual risk.
// Nothing here reads configuration from global state; callers pass it in.
package scoring

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

// Aggregate reduces values to one score using calcType. An empty collection
// yields floor so that under-specified risks remain computable.
func Aggregate(values []float64, calcType types.CalcType, floor float64) (float64, error) {
	if !calcType.IsValid() {
		return 0, goerr.Wrap(model.ErrUnknownCalcType, "cannot aggregate", goerr.V(model.CalcTypeKey, calcType))
	}
	if len(values) == 0 {
		return floor, nil
	}

	switch calcType {
	case types.CalcTypeHighOfAll:
		result := values[0]
		for _, v := range values[1:] {
			if v > result {
				result = v
			}
		}
		return result, nil

	case types.CalcTypeAdditionOfAll:
		var result float64
		for _, v := range values {
			result += v
		}
		return result, nil

	default: // types.CalcTypeProductOfAll
		result := 1.0
		for _, v := range values {
			result *= v
		}
		return result, nil
	}
}

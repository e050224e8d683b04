package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// CalcType selects how a collection of factor values is reduced to one number
type CalcType string

const (
	CalcTypeHighOfAll     CalcType = "HIGH_OF_ALL"
	CalcTypeAdditionOfAll CalcType = "ADDITION_OF_ALL"
	CalcTypeProductOfAll  CalcType = "PRODUCT_OF_ALL"
)

// AllCalcTypes returns all valid calculation types
func AllCalcTypes() []CalcType {
	return []CalcType{
		CalcTypeHighOfAll,
		CalcTypeAdditionOfAll,
		CalcTypeProductOfAll,
	}
}

// IsValid checks if the calculation type is valid
func (c CalcType) IsValid() bool {
	switch c {
	case CalcTypeHighOfAll,
		CalcTypeAdditionOfAll,
		CalcTypeProductOfAll:
		return true
	default:
		return false
	}
}

// Label returns the display name used by administrators, e.g. "High of all"
func (c CalcType) Label() string {
	switch c {
	case CalcTypeHighOfAll:
		return "High of all"
	case CalcTypeAdditionOfAll:
		return "Addition of all"
	case CalcTypeProductOfAll:
		return "Product of all"
	default:
		return string(c)
	}
}

func (c CalcType) String() string {
	return string(c)
}

// ParseCalcType accepts the canonical value, the display label or a short
// alias (high, addition, product), case-insensitively.
func ParseCalcType(s string) (CalcType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllCalcTypes() {
		if normalized == strings.ToLower(string(c)) || normalized == strings.ToLower(c.Label()) {
			return c, nil
		}
	}

	switch normalized {
	case "high", "max":
		return CalcTypeHighOfAll, nil
	case "addition", "add", "sum":
		return CalcTypeAdditionOfAll, nil
	case "product", "multiply":
		return CalcTypeProductOfAll, nil
	}

	return "", goerr.New("invalid calculation type", goerr.V("value", s))
}

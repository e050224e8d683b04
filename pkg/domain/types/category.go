package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// ImpactCategory identifies an impact dimension such as financial or safety impact
type ImpactCategory string

const (
	ImpactCategoryFinancial    ImpactCategory = "financial"
	ImpactCategoryReputational ImpactCategory = "reputational"
	ImpactCategoryRegulatory   ImpactCategory = "regulatory"
	ImpactCategorySafety       ImpactCategory = "safety"
	ImpactCategoryOperational  ImpactCategory = "operational"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// DefaultImpactCategories returns the built-in category set used when the catalog does not configure one
func DefaultImpactCategories() []ImpactCategory {
	return []ImpactCategory{
		ImpactCategoryFinancial,
		ImpactCategoryReputational,
		ImpactCategoryRegulatory,
		ImpactCategorySafety,
		ImpactCategoryOperational,
	}
}

// Validate checks if the ImpactCategory is valid
func (c ImpactCategory) Validate() error {
	if c == "" {
		return goerr.New("impact category cannot be empty")
	}
	if !idPattern.MatchString(string(c)) {
		return goerr.New("impact category must be lowercase alphanumeric with hyphens", goerr.V("category", c))
	}
	return nil
}

// String returns the string representation of ImpactCategory
func (c ImpactCategory) String() string {
	return string(c)
}

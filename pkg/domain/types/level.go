package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Catalog level identifiers. All share the lowercase slug format of
// impact categories, e.g. "possible" or "very-strong".
type (
	LikelihoodID          string
	ImpactID              string
	VulnerabilityRatingID string
)

func validateLevelID(kind, id string) error {
	if id == "" {
		return goerr.New(kind + " ID cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return goerr.New(kind+" ID must be lowercase alphanumeric with hyphens", goerr.V("id", id))
	}
	return nil
}

func (l LikelihoodID) Validate() error { return validateLevelID("likelihood", string(l)) }
func (l LikelihoodID) String() string  { return string(l) }

func (i ImpactID) Validate() error { return validateLevelID("impact", string(i)) }
func (i ImpactID) String() string  { return string(i) }

func (v VulnerabilityRatingID) Validate() error {
	return validateLevelID("vulnerability rating", string(v))
}
func (v VulnerabilityRatingID) String() string { return string(v) }

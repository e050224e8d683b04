package scoring

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
)

// Classify returns the label of the band that rates score.
//
// Ranges are evaluated in descending LowValue order and the first one that
// contains the score wins; a lower-bound-only range contains every score at
// or above its bound. A score between two bounded ranges (fractional scores
// such as residuals) takes the band whose lower bound it has passed, a score
// above every bound takes the top band, and a score below every bound takes
// the lowest band. An empty range set is a configuration error.
func Classify(score float64, ranges []model.ScoringRange) (string, error) {
	if len(ranges) == 0 {
		return "", goerr.Wrap(model.ErrRangesNotConfigured, "cannot classify score", goerr.V("score", score))
	}

	desc := make([]model.ScoringRange, len(ranges))
	copy(desc, ranges)
	sort.SliceStable(desc, func(i, j int) bool {
		return desc[i].LowValue > desc[j].LowValue
	})

	for i := range desc {
		if desc[i].Contains(score) {
			return desc[i].Label, nil
		}
	}

	for i := range desc {
		if score >= desc[i].LowValue {
			return desc[i].Label, nil
		}
	}

	return desc[len(desc)-1].Label, nil
}

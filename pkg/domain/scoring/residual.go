package scoring

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
)

// ResidualResult is the outcome of applying control effectiveness to an inherent score
type ResidualResult struct {
	// Effectiveness is the average effectiveness of existing controls, in percent
	Effectiveness float64
	Score         float64
	Rating        string
}

// ControlEffectiveness averages effectiveness over existing (non-planned)
// controls. A control without a recorded value counts as 0%, and values are
// clamped to [0,100]. No existing controls yields 0.
func ControlEffectiveness(controls []model.ControlLink) float64 {
	var sum float64
	var n int
	for _, c := range controls {
		if c.IsPlanned {
			continue
		}
		n++
		if c.Effectiveness == nil {
			continue
		}
		sum += clampPercent(*c.Effectiveness)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Residual derives the residual score and rating from the inherent score
func Residual(inherent float64, controls []model.ControlLink, ranges []model.ScoringRange) (*ResidualResult, error) {
	effectiveness := ControlEffectiveness(controls)
	score := inherent * (1 - effectiveness/100)

	rating, err := Classify(score, ranges)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify residual score", goerr.V("score", score))
	}

	return &ResidualResult{
		Effectiveness: effectiveness,
		Score:         score,
		Rating:        rating,
	}, nil
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

package scoring_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func existing(effectiveness float64) model.ControlLink {
	return model.ControlLink{ControlID: "CTL", Effectiveness: model.Float64Ptr(effectiveness)}
}

func TestResidual_AverageOfExistingControls(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)

	result, err := scoring.Residual(40, []model.ControlLink{existing(50), existing(30)}, ranges)
	gt.NoError(t, err).Required()

	gt.V(t, result.Effectiveness).Equal(40.0)
	gt.V(t, result.Score).Equal(24.0)
	gt.S(t, result.Rating).Equal(scoring.BandHigh)
}

func TestResidual_PlannedControlsDoNotMitigate(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)
	controls := []model.ControlLink{
		{ControlID: "CTL-1", IsPlanned: true, Effectiveness: model.Float64Ptr(90)},
	}

	result, err := scoring.Residual(350, controls, ranges)
	gt.NoError(t, err).Required()
	gt.V(t, result.Effectiveness).Equal(0.0)
	gt.V(t, result.Score).Equal(350.0)
	gt.S(t, result.Rating).Equal(scoring.BandCatastrophic)
}

func TestResidual_UnscoredControlCountsAsZero(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)

	withScored, err := scoring.Residual(100, []model.ControlLink{existing(60)}, ranges)
	gt.NoError(t, err).Required()

	withUnscored, err := scoring.Residual(100, []model.ControlLink{existing(60), {ControlID: "CTL-2"}}, ranges)
	gt.NoError(t, err).Required()

	gt.V(t, withScored.Score).Equal(40.0)
	gt.V(t, withUnscored.Score).Equal(70.0)
	gt.B(t, withUnscored.Score >= withScored.Score).True()
}

func TestResidual_NeverExceedsInherent(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)
	cases := [][]model.ControlLink{
		nil,
		{existing(0)},
		{existing(0), existing(0)},
		{existing(100)},
		{existing(33), existing(67), existing(12)},
		{existing(150)},
		{existing(-20)},
	}

	for _, inherent := range []float64{0, 10, 24, 350, 500} {
		for _, controls := range cases {
			result, err := scoring.Residual(inherent, controls, ranges)
			gt.NoError(t, err).Required()
			gt.B(t, result.Score <= inherent).
				Describef("residual %v must not exceed inherent %v", result.Score, inherent).
				True()
			gt.B(t, result.Score >= 0).True()
		}
	}
}

func TestResidual_EqualsInherentWithoutMitigation(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)

	none, err := scoring.Residual(75, nil, ranges)
	gt.NoError(t, err).Required()
	gt.V(t, none.Score).Equal(75.0)

	zero, err := scoring.Residual(75, []model.ControlLink{existing(0), existing(0)}, ranges)
	gt.NoError(t, err).Required()
	gt.V(t, zero.Score).Equal(75.0)
}

func TestResidual_NoRanges(t *testing.T) {
	_, err := scoring.Residual(75, nil, nil)
	gt.Error(t, err).Is(model.ErrRangesNotConfigured)
}

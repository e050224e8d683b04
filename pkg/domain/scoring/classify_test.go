package scoring_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/scoring"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func TestClassify_DefaultScale(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)

	tests := []struct {
		score float64
		want  string
	}{
		{0, scoring.BandLowRisk},
		{10, scoring.BandLowRisk},
		{10.5, scoring.BandLowRisk},
		{11, scoring.BandHigh},
		{24, scoring.BandHigh},
		{50, scoring.BandHigh},
		{51, scoring.BandVeryHigh},
		{99, scoring.BandVeryHigh},
		{100, scoring.BandCatastrophic},
		{350, scoring.BandCatastrophic},
		{500, scoring.BandCatastrophic},
		{750, scoring.BandCatastrophic},
		{-3, scoring.BandLowRisk},
	}

	for _, tt := range tests {
		got, err := scoring.Classify(tt.score, ranges)
		gt.NoError(t, err).Required()
		gt.B(t, got == tt.want).Describef("classify(%v) = %q, want %q", tt.score, got, tt.want).True()
	}
}

func TestClassify_NoRangesIsConfigurationError(t *testing.T) {
	_, err := scoring.Classify(42, nil)
	gt.Error(t, err).Is(model.ErrRangesNotConfigured)
	gt.B(t, errors.Is(err, model.ErrConfiguration)).True()
}

func TestClassify_LowerBoundOnlyScheme(t *testing.T) {
	ranges := []model.ScoringRange{
		{Label: "Low", LowValue: 0, CalculationType: types.CalcTypeHighOfAll},
		{Label: "Medium", LowValue: 3, CalculationType: types.CalcTypeHighOfAll},
		{Label: "Critical", LowValue: 5, CalculationType: types.CalcTypeHighOfAll},
	}

	tests := []struct {
		score float64
		want  string
	}{
		{0, "Low"},
		{2.9, "Low"},
		{3, "Medium"},
		{4, "Medium"},
		{5, "Critical"},
		{10, "Critical"},
	}

	for _, tt := range tests {
		got, err := scoring.Classify(tt.score, ranges)
		gt.NoError(t, err).Required()
		gt.B(t, got == tt.want).Describef("classify(%v) = %q, want %q", tt.score, got, tt.want).True()
	}
}

func TestClassify_OrderOfInputDoesNotMatter(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)
	reversed := make([]model.ScoringRange, len(ranges))
	for i, r := range ranges {
		reversed[len(ranges)-1-i] = r
	}

	for _, score := range []float64{0, 10, 11, 60, 100, 499} {
		a, err := scoring.Classify(score, ranges)
		gt.NoError(t, err).Required()
		b, err := scoring.Classify(score, reversed)
		gt.NoError(t, err).Required()
		gt.S(t, a).Equal(b)
	}
}

func TestClassify_ExactlyOneBandForIntegerScores(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)
	gt.NoError(t, scoring.ValidateCoverage(ranges)).Required()

	for score := 0; score <= 500; score++ {
		matches := 0
		for _, r := range ranges {
			if r.Contains(float64(score)) {
				matches++
			}
		}
		gt.B(t, matches == 1).Describef("score %d matched %d bands", score, matches).True()
	}
}

func TestClassify_SchemeSwitchUsesScopedRanges(t *testing.T) {
	stored := []model.ScoringRange{
		{Label: "Product Low", LowValue: 0, HighValue: model.Float64Ptr(100), CalculationType: types.CalcTypeProductOfAll},
		{Label: "Product High", LowValue: 101, HighValue: model.Float64Ptr(500), CalculationType: types.CalcTypeProductOfAll},
		{Label: "Addition Low", LowValue: 0, HighValue: model.Float64Ptr(10), CalculationType: types.CalcTypeAdditionOfAll},
		{Label: "Addition High", LowValue: 11, HighValue: model.Float64Ptr(25), CalculationType: types.CalcTypeAdditionOfAll},
	}

	product, err := scoring.Classify(20, scoring.ActiveRanges(types.CalcTypeProductOfAll, stored))
	gt.NoError(t, err).Required()
	gt.S(t, product).Equal("Product Low")

	addition, err := scoring.Classify(20, scoring.ActiveRanges(types.CalcTypeAdditionOfAll, stored))
	gt.NoError(t, err).Required()
	gt.S(t, addition).Equal("Addition High")
}

func TestActiveRanges(t *testing.T) {
	t.Run("falls back to default scale for product", func(t *testing.T) {
		active := scoring.ActiveRanges(types.CalcTypeProductOfAll, nil)
		gt.A(t, active).Length(4)
		gt.S(t, active[0].Label).Equal(scoring.BandLowRisk)
	})

	t.Run("no fallback for other schemes", func(t *testing.T) {
		gt.A(t, scoring.ActiveRanges(types.CalcTypeAdditionOfAll, nil)).Length(0)
		gt.A(t, scoring.ActiveRanges(types.CalcTypeHighOfAll, nil)).Length(0)
	})

	t.Run("custom ranges replace the default scale", func(t *testing.T) {
		stored := []model.ScoringRange{
			{Label: "All", LowValue: 0, CalculationType: types.CalcTypeProductOfAll},
		}
		active := scoring.ActiveRanges(types.CalcTypeProductOfAll, stored)
		gt.A(t, active).Length(1)
		gt.S(t, active[0].Label).Equal("All")
	})
}

func TestValidateCoverage(t *testing.T) {
	bounded := func(label string, low, high float64) model.ScoringRange {
		return model.ScoringRange{Label: label, LowValue: low, HighValue: model.Float64Ptr(high), CalculationType: types.CalcTypeAdditionOfAll}
	}
	open := func(label string, low float64) model.ScoringRange {
		return model.ScoringRange{Label: label, LowValue: low, CalculationType: types.CalcTypeAdditionOfAll}
	}

	tests := []struct {
		name    string
		ranges  []model.ScoringRange
		wantErr error
	}{
		{"contiguous bounded", []model.ScoringRange{bounded("a", 0, 10), bounded("b", 11, 20)}, nil},
		{"bounded then open top", []model.ScoringRange{bounded("a", 0, 10), open("b", 11)}, nil},
		{"lower-bound only", []model.ScoringRange{open("a", 0), open("b", 5), open("c", 9)}, nil},
		{"unsorted input", []model.ScoringRange{bounded("b", 11, 20), bounded("a", 0, 10)}, nil},
		{"empty", nil, model.ErrRangesNotConfigured},
		{"not starting at zero", []model.ScoringRange{bounded("a", 1, 10)}, model.ErrRangesNotCovering},
		{"gap", []model.ScoringRange{bounded("a", 0, 10), bounded("b", 12, 20)}, model.ErrRangesNotCovering},
		{"overlap", []model.ScoringRange{bounded("a", 0, 10), bounded("b", 10, 20)}, model.ErrRangeOverlap},
		{"same lower bound", []model.ScoringRange{open("a", 0), open("b", 0)}, model.ErrRangeOverlap},
		{"negative low", []model.ScoringRange{bounded("a", -1, 10)}, model.ErrConfiguration},
		{"mixed calc types", []model.ScoringRange{
			bounded("a", 0, 10),
			{Label: "b", LowValue: 11, CalculationType: types.CalcTypeProductOfAll},
		}, model.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scoring.ValidateCoverage(tt.ranges)
			if tt.wantErr == nil {
				gt.NoError(t, err)
				return
			}
			gt.Error(t, err).Is(tt.wantErr)
			gt.B(t, errors.Is(err, model.ErrConfiguration)).True()
		})
	}
}

func TestValidateCoverage_BandsAreContiguous(t *testing.T) {
	ranges := scoring.DefaultRanges(types.CalcTypeProductOfAll)
	gt.NoError(t, scoring.ValidateCoverage(ranges)).Required()

	for i := 1; i < len(ranges); i++ {
		gt.V(t, ranges[i].LowValue).Equal(*ranges[i-1].HighValue + 1)
	}
}

package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func TestRiskStatus_IsValid(t *testing.T) {
	for _, s := range types.AllRiskStatuses() {
		gt.B(t, s.IsValid()).
			Describef("Status %s should be valid", s).
			True()
	}
	gt.B(t, types.RiskStatus("ARCHIVED").IsValid()).False()
	gt.B(t, types.RiskStatus("").IsValid()).False()
}

func TestRiskStatus_Normalize(t *testing.T) {
	gt.V(t, types.RiskStatus("").Normalize()).Equal(types.RiskStatusOpen)
	gt.V(t, types.RiskStatusClosed.Normalize()).Equal(types.RiskStatusClosed)
}

func TestParseRiskStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.RiskStatus
		wantErr bool
	}{
		{"open", "OPEN", types.RiskStatusOpen, false},
		{"in progress", "IN_PROGRESS", types.RiskStatusInProgress, false},
		{"awaiting approval", "AWAITING_APPROVAL", types.RiskStatusAwaitingApproval, false},
		{"lowercase rejected", "open", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRiskStatus(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
				gt.V(t, got).Equal(tt.want)
			}
		})
	}
}

func TestAssessmentStatus(t *testing.T) {
	statuses := types.AllAssessmentStatuses()
	gt.A(t, statuses).Length(3)

	gt.V(t, types.AssessmentStatus("").Normalize()).Equal(types.AssessmentStatusOpen)

	got, err := types.ParseAssessmentStatus("ASSESSED")
	gt.NoError(t, err)
	gt.V(t, got).Equal(types.AssessmentStatusAssessed)

	_, err = types.ParseAssessmentStatus("DONE")
	gt.Error(t, err)
}

func TestParseAssessmentMode(t *testing.T) {
	mode, err := types.ParseAssessmentMode("LENIENT")
	gt.NoError(t, err)
	gt.V(t, mode).Equal(types.AssessmentModeLenient)

	_, err = types.ParseAssessmentMode("relaxed")
	gt.Error(t, err)
}

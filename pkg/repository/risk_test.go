package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
)

func sampleRisk(id types.RiskID) *model.Risk {
	return &model.Risk{
		ID:           id,
		Title:        "Customer data exfiltration",
		Description:  "Exfiltration of PII through compromised accounts",
		DepartmentID: "it",
		ThreatLinks: []model.ThreatLink{
			{ThreatID: "THR-1", Name: "Phishing", Likelihood: model.Float64Ptr(3)},
			{ThreatID: "THR-2", Name: "Insider"},
		},
		ImpactEntries: []model.ImpactEntry{
			{ThreatID: "THR-1", Category: types.ImpactCategoryFinancial, Impact: 8},
		},
		VulnerabilityLinks: []model.VulnerabilityLink{
			{VulnerabilityID: "VUL-1", Name: "Weak MFA", Rating: model.Float64Ptr(7)},
		},
		ControlLinks: []model.ControlLink{
			{ControlID: "CTL-1", Name: "Awareness training", Effectiveness: model.Float64Ptr(50)},
			{ControlID: "CTL-2", Name: "Hardware keys", IsPlanned: true},
		},
		Status:           types.RiskStatusInProgress,
		AssessmentStatus: types.AssessmentStatusInProgress,
		Progress: model.AssessmentProgress{
			LastStep:       types.StepImpact,
			CompletedSteps: []types.StepID{types.StepRiskContext, types.StepLikelihood},
		},
	}
}

func runRiskRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put creates risk with links", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Risk().Put(ctx, sampleRisk("RSK-001"))
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(types.RiskID("RSK-001"))
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()

		got, err := repo.Risk().Get(ctx, "RSK-001")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Customer data exfiltration")
		gt.Array(t, got.ThreatLinks).Length(2)
		gt.Value(t, *got.ThreatLinks[0].Likelihood).Equal(3.0)
		gt.Value(t, got.ThreatLinks[1].Likelihood).Nil()
		gt.Array(t, got.ImpactEntries).Length(1)
		gt.Value(t, got.ImpactEntries[0].Category).Equal(types.ImpactCategoryFinancial)
		gt.Value(t, *got.VulnerabilityLinks[0].Rating).Equal(7.0)
		gt.Array(t, got.ControlLinks).Length(2)
		gt.Bool(t, got.ControlLinks[1].IsPlanned).True()
		gt.Value(t, got.Status).Equal(types.RiskStatusInProgress)
		gt.Value(t, got.Progress.LastStep).Equal(types.StepImpact)
		gt.Array(t, got.Progress.CompletedSteps).Length(2)
	})

	t.Run("Put replaces and preserves CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Risk().Put(ctx, sampleRisk("RSK-002"))
		gt.NoError(t, err).Required()

		time.Sleep(10 * time.Millisecond)

		assessed := sampleRisk("RSK-002")
		now := time.Now().UTC().Truncate(time.Millisecond)
		assessed.InherentRiskRating = 168
		assessed.RiskRating = "Catastrophic"
		assessed.AssessmentStatus = types.AssessmentStatusAssessed
		assessed.Status = types.RiskStatusCompleted
		assessed.AssessmentDate = &now

		updated, err := repo.Risk().Put(ctx, assessed)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.CreatedAt.Equal(created.CreatedAt)).True()
		gt.Bool(t, updated.UpdatedAt.After(created.UpdatedAt)).True()

		got, err := repo.Risk().Get(ctx, "RSK-002")
		gt.NoError(t, err).Required()
		gt.Value(t, got.InherentRiskRating).Equal(168.0)
		gt.Value(t, got.RiskRating).Equal("Catastrophic")
		gt.Bool(t, got.IsAssessed()).True()
		gt.Value(t, got.AssessmentDate).NotNil()
	})

	t.Run("Put rejects malformed ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Risk().Put(context.Background(), sampleRisk("not an id"))
		gt.Error(t, err)
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Risk().Put(ctx, sampleRisk("RSK-003"))
		gt.NoError(t, err).Required()

		got, err := repo.Risk().Get(ctx, "RSK-003")
		gt.NoError(t, err).Required()
		*got.ThreatLinks[0].Likelihood = 99
		got.Title = "changed"

		again, err := repo.Risk().Get(ctx, "RSK-003")
		gt.NoError(t, err).Required()
		gt.Value(t, *again.ThreatLinks[0].Likelihood).Equal(3.0)
		gt.Value(t, again.Title).Equal("Customer data exfiltration")
	})

	t.Run("Get of missing risk is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Risk().Get(context.Background(), "RSK-999")
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("List returns risks ordered by ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, id := range []types.RiskID{"RSK-012", "RSK-010", "RSK-011"} {
			_, err := repo.Risk().Put(ctx, sampleRisk(id))
			gt.NoError(t, err).Required()
		}

		risks, err := repo.Risk().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, risks).Length(3)
		gt.Value(t, risks[0].ID).Equal(types.RiskID("RSK-010"))
		gt.Value(t, risks[2].ID).Equal(types.RiskID("RSK-012"))
	})

	t.Run("Delete removes risk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Risk().Put(ctx, sampleRisk("RSK-020"))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Risk().Delete(ctx, "RSK-020")).Required()

		_, err = repo.Risk().Get(ctx, "RSK-020")
		gt.Error(t, err).Is(model.ErrNotFound)

		gt.Error(t, repo.Risk().Delete(ctx, "RSK-020")).Is(model.ErrNotFound)
	})
}

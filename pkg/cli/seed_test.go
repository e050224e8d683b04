package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskassess/pkg/cli/config"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/repository/memory"
	"github.com/secmon-lab/riskassess/pkg/usecase"
)

const seedTOML = `
[scoring]
probability_impact_calc_type = "HIGH_OF_ALL"
risk_rating_calc_type = "ADDITION_OF_ALL"

[[likelihood]]
id = "rare"
name = "Rare"
weight = 1

[[likelihood]]
id = "likely"
name = "Likely"
weight = 4

[[impact]]
id = "minor"
name = "Minor"
weight = 2

[[vulnerability]]
id = "weak"
name = "Weak"
weight = 3

[[range]]
label = "Low"
low = 0
high = 9
calculation_type = "ADDITION_OF_ALL"

[[range]]
label = "High"
low = 10
calculation_type = "ADDITION_OF_ALL"

[[risk]]
id = "RSK-001"
title = "Credential leak"

  [[risk.threat]]
  id = "THR-1"
  name = "Phishing"

  [[risk.vulnerability]]
  id = "VUL-1"
  name = "No MFA"

  [[risk.control]]
  id = "CTL-1"
  name = "Awareness training"
  effectiveness = 30.0
`

func TestApplySeed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.toml")
	gt.NoError(t, os.WriteFile(path, []byte(seedTOML), 0600)).Required()

	seed, err := config.LoadSeedFile(path)
	gt.NoError(t, err).Required()

	uc := usecase.New(memory.New())
	gt.NoError(t, applySeed(ctx, uc, seed)).Required()

	catalog, err := uc.Catalog.Load(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, catalog.Likelihoods).Length(2)
	gt.V(t, catalog.MinVulnerabilityWeight()).Equal(3.0)

	cfg, err := uc.Scoring.GetConfig(ctx)
	gt.NoError(t, err).Required()
	gt.V(t, cfg.RiskRatingCalcType).Equal(types.CalcTypeAdditionOfAll)

	ranges, err := uc.Scoring.ListRanges(ctx, types.CalcTypeAdditionOfAll)
	gt.NoError(t, err).Required()
	gt.A(t, ranges).Length(2)

	rating, err := uc.Scoring.Classify(ctx, 12, types.CalcTypeAdditionOfAll)
	gt.NoError(t, err).Required()
	gt.V(t, rating).Equal("High")

	risk, err := uc.Risks.Get(ctx, "RSK-001")
	gt.NoError(t, err).Required()
	gt.V(t, risk.Title).Equal("Credential leak")
	gt.A(t, risk.ThreatLinks).Length(1)
	gt.A(t, risk.ControlLinks).Length(1)
	gt.V(t, *risk.ControlLinks[0].Effectiveness).Equal(30.0)
}

func TestApplySeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.toml")
	gt.NoError(t, os.WriteFile(path, []byte(seedTOML), 0600)).Required()

	seed, err := config.LoadSeedFile(path)
	gt.NoError(t, err).Required()

	uc := usecase.New(memory.New())
	gt.NoError(t, applySeed(ctx, uc, seed)).Required()
	gt.NoError(t, applySeed(ctx, uc, seed)).Required()

	ranges, err := uc.Scoring.ListRanges(ctx, types.CalcTypeAdditionOfAll)
	gt.NoError(t, err).Required()
	gt.A(t, ranges).Length(2)

	risks, err := uc.Risks.List(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, risks).Length(1)
}

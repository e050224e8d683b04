package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/cli/config"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/usecase"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var seedPath string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "TOML seed file with catalog, scoring and risk definitions",
			Required:    true,
			Sources:     cli.EnvVars("RISKASSESS_SEED_FILE"),
			Destination: &seedPath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load a seed file into the repository",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			seed, err := config.LoadSeedFile(seedPath)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			return applySeed(ctx, usecase.New(repo), seed)
		},
	}
}

// applySeed writes every section present in the seed file. Ranges replace
// the stored ranges of each calculation type they name.
func applySeed(ctx context.Context, uc *usecase.UseCases, seed *config.SeedFile) error {
	logger := logging.From(ctx)

	if seed.HasCatalog() {
		if err := uc.Catalog.Seed(ctx, seed.Catalog()); err != nil {
			return err
		}
		catalog := seed.Catalog()
		logger.Info("Catalog seeded",
			"likelihoods", len(catalog.Likelihoods),
			"impacts", len(catalog.Impacts),
			"vulnerability_ratings", len(catalog.VulnerabilityRatings),
			"categories", len(catalog.Categories),
		)
	}

	byType := make(map[types.CalcType][]model.ScoringRange)
	for _, r := range seed.ScoringRanges() {
		byType[r.CalculationType] = append(byType[r.CalculationType], r)
	}
	for _, ct := range types.AllCalcTypes() {
		ranges, ok := byType[ct]
		if !ok {
			continue
		}
		if _, err := uc.Scoring.ReplaceRanges(ctx, ct, ranges); err != nil {
			return err
		}
	}

	if cfg := seed.ScoringConfig(); cfg != nil {
		if _, err := uc.Scoring.UpdateConfig(ctx, cfg); err != nil {
			return err
		}
	}

	for _, def := range seed.RiskDefinitions() {
		if _, err := uc.Risks.Register(ctx, def); err != nil {
			return err
		}
	}
	if n := len(seed.Risks); n > 0 {
		logger.Info("Risks registered", "count", n)
	}

	return nil
}

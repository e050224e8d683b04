package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// App holds CLI flags shaping the use cases
type App struct {
	mode        string
	catalogPath string
}

// Flags returns CLI flags for the application behavior
func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "assessment-mode",
			Usage:       "Default assessment mode (STRICT or LENIENT)",
			Value:       string(types.AssessmentModeStrict),
			Sources:     cli.EnvVars("RISKASSESS_ASSESSMENT_MODE"),
			Destination: &a.mode,
		},
		&cli.StringFlag{
			Name:        "catalog",
			Aliases:     []string{"c"},
			Usage:       "TOML seed file whose catalog is served while the repository holds none",
			Sources:     cli.EnvVars("RISKASSESS_CATALOG"),
			Destination: &a.catalogPath,
		},
	}
}

// LogValue renders the settings
func (a App) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("assessment_mode", a.mode),
		slog.String("catalog", a.catalogPath),
	)
}

// Options converts the flags into use case options
func (a *App) Options() ([]usecase.Option, error) {
	mode, err := types.ParseAssessmentMode(a.mode)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid assessment mode", goerr.V("mode", a.mode))
	}
	opts := []usecase.Option{usecase.WithAssessmentMode(mode)}

	if a.catalogPath != "" {
		seed, err := LoadSeedFile(a.catalogPath)
		if err != nil {
			return nil, err
		}
		if !seed.HasCatalog() {
			return nil, goerr.Wrap(ErrInvalidConfig, "catalog file defines no levels", goerr.V(ConfigPathKey, a.catalogPath))
		}
		opts = append(opts, usecase.WithFallbackCatalog(seed.Catalog()))
	}

	return opts, nil
}

package usecase

import (
	"time"

	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/domain/types"
	"github.com/secmon-lab/riskassess/pkg/repository/session"
)

type UseCases struct {
	repo            interfaces.Repository
	sessions        interfaces.SessionStore
	mode            types.AssessmentMode
	fallbackCatalog *model.Catalog
	now             func() time.Time

	Catalog    *CatalogUseCase
	Risks      *RiskUseCase
	Scoring    *ScoringUseCase
	Residual   *ResidualUseCase
	Assessment *AssessmentUseCase
}

type Option func(*UseCases)

// WithSessionStore sets where open assessments are kept. Defaults to process memory.
func WithSessionStore(store interfaces.SessionStore) Option {
	return func(uc *UseCases) {
		uc.sessions = store
	}
}

// WithAssessmentMode sets the default navigation mode of new assessments
func WithAssessmentMode(mode types.AssessmentMode) Option {
	return func(uc *UseCases) {
		uc.mode = mode
	}
}

// WithFallbackCatalog sets the catalog served while the repository holds none
func WithFallbackCatalog(catalog *model.Catalog) Option {
	return func(uc *UseCases) {
		uc.fallbackCatalog = catalog
	}
}

// WithClock replaces the time source used for assessment dates
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:            repo,
		mode:            types.AssessmentModeStrict,
		fallbackCatalog: model.DefaultCatalog(),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.sessions == nil {
		uc.sessions = session.NewMemory()
	}

	uc.Catalog = NewCatalogUseCase(repo, uc.fallbackCatalog)
	uc.Scoring = NewScoringUseCase(repo)
	uc.Risks = NewRiskUseCase(repo, uc.Scoring)
	uc.Residual = NewResidualUseCase(repo, uc.Scoring)
	uc.Assessment = NewAssessmentUseCase(repo, uc.sessions, uc.Catalog, uc.Scoring, uc.mode, uc.now)

	return uc
}

package memory

import (
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	risk    *riskRepository
	catalog *catalogRepository
	scoring *scoringRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		risk:    newRiskRepository(),
		catalog: newCatalogRepository(),
		scoring: newScoringRepository(),
	}
}

func (m *Memory) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Memory) Catalog() interfaces.CatalogRepository {
	return m.catalog
}

func (m *Memory) Scoring() interfaces.ScoringRepository {
	return m.scoring
}

func (m *Memory) Close() error {
	return nil
}

package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Risk() RiskRepository
	Catalog() CatalogRepository
	Scoring() ScoringRepository

	Close() error
}

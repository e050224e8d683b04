// Package postgres implements the repository on PostgreSQL via gorm. Links
// and progress are stored as jsonb columns on the risk row.
package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Postgres struct {
	db      *gorm.DB
	risk    *riskRepository
	catalog *catalogRepository
	scoring *scoringRepository
}

var _ interfaces.Repository = &Postgres{}

type Option func(*options)

type options struct {
	tablePrefix string
	logLevel    logger.LogLevel
}

// WithTablePrefix prepends prefix to every table name
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		o.tablePrefix = prefix
	}
}

// WithSQLLog enables gorm's SQL logging
func WithSQLLog() Option {
	return func(o *options) {
		o.logLevel = logger.Info
	}
}

// New connects to dsn and migrates the schema
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	o := &options{logLevel: logger.Silent}
	for _, opt := range opts {
		opt(o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(o.logLevel),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	p := &Postgres{
		db:      db,
		risk:    &riskRepository{db: db, prefix: o.tablePrefix},
		catalog: &catalogRepository{db: db, prefix: o.tablePrefix},
		scoring: &scoringRepository{db: db, prefix: o.tablePrefix},
	}

	if err := p.migrate(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	tables := []struct {
		name  string
		model any
	}{
		{p.risk.table(), &riskRow{}},
		{p.catalog.table(), &catalogEntryRow{}},
		{p.scoring.configTable(), &scoringConfigRow{}},
		{p.scoring.rangesTable(), &scoringRangeRow{}},
	}

	for _, t := range tables {
		if err := p.db.WithContext(ctx).Table(t.name).AutoMigrate(t.model); err != nil {
			return goerr.Wrap(err, "failed to migrate table", goerr.V("table", t.name))
		}
	}
	return nil
}

func (p *Postgres) Risk() interfaces.RiskRepository {
	return p.risk
}

func (p *Postgres) Catalog() interfaces.CatalogRepository {
	return p.catalog
}

func (p *Postgres) Scoring() interfaces.ScoringRepository {
	return p.scoring
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}

func tableName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

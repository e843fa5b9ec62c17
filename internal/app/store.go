// Package app wires storage and services from configuration. Shared by the
// API server, the outbox worker and the operator CLI.
package app

import (
	"context"
	"fmt"

	"oficio/internal/config"
	"oficio/internal/core/audit"
	"oficio/internal/core/numerator"
	"oficio/internal/core/outbox"
	"oficio/internal/core/tx"
	"oficio/internal/domain/cases"
	"oficio/internal/domain/templates"
	"oficio/internal/domain/units"
	pgnumerator "oficio/internal/infrastructure/numerator"
	"oficio/internal/infrastructure/storage/postgres"
	"oficio/internal/infrastructure/storage/postgres/catalog_repo"
	"oficio/internal/infrastructure/storage/postgres/document_repo"
	"oficio/internal/infrastructure/storage/sqlite"
	"oficio/pkg/logger"
)

// Store bundles the repositories of one storage backend.
type Store struct {
	Driver    string
	TxManager tx.Manager
	Units     units.Repository
	Templates templates.Repository
	Cases     cases.Repository
	Counter   numerator.Counter
	Audit     audit.Recorder
	Outbox    outbox.Publisher

	// PgTxManager is set for the postgres driver only. The outbox relay needs it.
	PgTxManager *postgres.TxManager

	ping  func(ctx context.Context) error
	close func()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the database connections.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the configured backend and, when enabled, creates
// missing tables.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.URL)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	txm := postgres.NewTxManager(pool)
	if cfg.Migrate {
		if err := postgres.Bootstrap(ctx, txm); err != nil {
			pool.Close()
			return nil, err
		}
	}

	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit service: %w", err)
	}

	logger.Info(ctx, "postgres storage ready", "max_conns", poolCfg.MaxConns)
	return &Store{
		Driver:      config.DriverPostgres,
		TxManager:   txm,
		Units:       catalog_repo.NewUnitRepo(txm),
		Templates:   catalog_repo.NewTemplateRepo(txm),
		Cases:       document_repo.NewCaseRepo(txm),
		Counter:     pgnumerator.New(txm),
		Audit:       auditSvc,
		Outbox:      postgres.NewOutboxPublisher(txm),
		PgTxManager: txm,
		ping:        pool.Ping,
		close:       pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	txm := sqlite.NewTxManager(db)
	logger.Info(ctx, "sqlite storage ready", "path", cfg.SQLitePath)
	return &Store{
		Driver:    config.DriverSQLite,
		TxManager: txm,
		Units:     sqlite.NewUnitRepo(txm),
		Templates: sqlite.NewTemplateRepo(txm),
		Cases:     sqlite.NewCaseRepo(txm),
		Counter:   sqlite.NewCounter(txm),
		Audit:     sqlite.NewAuditRecorder(txm),
		Outbox:    sqlite.NewOutboxPublisher(txm),
		ping:      db.PingContext,
		close:     func() { _ = db.Close() },
	}, nil
}

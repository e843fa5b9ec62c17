package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"oficio/internal/core/tx"
	"oficio/pkg/logger"
)

var _ tx.Manager = (*TxManager)(nil)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager keeps the active *sql.Tx in the context, like the PostgreSQL
// manager does with pgx.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new transaction manager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

type txKey struct{}

// Tx wraps *sql.Tx with the savepoint depth.
type Tx struct {
	*sql.Tx
	depth int
}

func (m *TxManager) getTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// InTransaction reports whether ctx carries a transaction.
func (m *TxManager) InTransaction(ctx context.Context) bool {
	return m.getTx(ctx) != nil
}

// GetQuerier returns the transaction in ctx, or the database.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.getTx(ctx); t != nil {
		return t.Tx
	}
	return m.db
}

// RunInTransaction executes fn within a transaction.
// If a transaction already exists in ctx, it will be reused.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.getTx(ctx) != nil {
		return fn(ctx)
	}

	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, &Tx{Tx: sqlTx})
	if err := m.run(txCtx, sqlTx, fn); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

func (m *TxManager) run(ctx context.Context, sqlTx *sql.Tx, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
	}
	return err
}

// RunInSavepoint runs fn in a savepoint of the current transaction, or in a
// fresh transaction when ctx carries none.
func (m *TxManager) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	existing := m.getTx(ctx)
	if existing == nil {
		return m.RunInTransaction(ctx, fn)
	}

	existing.depth++
	name := fmt.Sprintf("sp_%d", existing.depth)
	defer func() { existing.depth-- }()

	if _, err := existing.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := existing.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		// SQLite keeps a rolled back savepoint on the stack until released.
		if _, relErr := existing.ExecContext(ctx, "RELEASE SAVEPOINT "+name); relErr != nil {
			logger.Error(ctx, "release savepoint failed", "savepoint", name, "error", relErr)
		}
		return err
	}

	if _, err := existing.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

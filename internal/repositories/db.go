package repositories

import (
	"context"
	"errors"
	"fmt"

	"stockledger/internal/common"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools, so every repository
// can run against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts database transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Pool is what the service layer needs from the database handle.
type Pool interface {
	DBTX
	TxBeginner
}

// TxManager runs a unit of work inside one database transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type txManager struct {
	db     TxBeginner
	opts   pgx.TxOptions
	logger *zap.Logger
}

func NewTxManager(db TxBeginner, isoLevel pgx.TxIsoLevel, logger *zap.Logger) TxManager {
	return &txManager{
		db:     db,
		opts:   pgx.TxOptions{IsoLevel: isoLevel},
		logger: logger,
	}
}

// WithinTx begins a transaction, runs fn and commits. Any error from fn, a failed
// commit or a panic rolls the transaction back, so nothing fn wrote is visible.
func (m *txManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.db.BeginTx(ctx, m.opts)
	if err != nil {
		return classifyError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		m.rollback(ctx, tx)
		return classifyError("transaction", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyError("commit transaction", err)
	}
	return nil
}

func (m *txManager) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		m.logger.Warn("transaction rollback failed", zap.Error(err))
	}
}

// classifyError passes AppErrors through untouched, turns aborts caused by
// concurrent writers into a retryable error and wraps everything else.
func classifyError(op string, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if isConcurrencyAbort(err) {
		return common.ErrConcurrentModification.Wrap(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConcurrencyAbort(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meja-order/api/internal/database"
)

// Store defines the DB methods the transaction core needs.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error)
	LockTable(ctx context.Context, arg database.LockTableParams) (database.Table, error)
	UnlockTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CreateWaiterCall(ctx context.Context, arg database.CreateWaiterCallParams) (database.WaiterCall, error)
}

// NewStore creates a Store from a DBTX (pool or tx). This allows the runner
// to create store instances bound to the transaction it opened.
type NewStore func(db database.DBTX) Store

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AtomicRunner executes a unit of work atomically: every read and write fn
// performs through the store either commits as a whole or not at all.
// Conflicts with concurrent transactions surface as retryable TxErrors.
type AtomicRunner interface {
	RunAtomic(ctx context.Context, fn func(store Store) error) error
}

// PgxRunner backs AtomicRunner with a pgx transaction. Row claims
// (SELECT ... FOR UPDATE in the store) serialize writers on the contended
// table rows; serialization and deadlock failures are translated into the
// retryable abort codes.
type PgxRunner struct {
	pool     TxBeginner
	newStore NewStore
}

func NewPgxRunner(pool TxBeginner, newStore NewStore) *PgxRunner {
	return &PgxRunner{pool: pool, newStore: newStore}
}

func (r *PgxRunner) RunAtomic(ctx context.Context, fn func(store Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classifyStoreError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(r.newStore(tx)); err != nil {
		// Typed failures pass through untouched; anything else came from the
		// store layer and gets classified at this boundary.
		if _, ok := AsTxError(err); ok {
			return err
		}
		return classifyStoreError("transaction", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyStoreError("commit transaction", err)
	}
	return nil
}

// classifyStoreError maps store-level failures onto the closed code set.
// Serialization failures and deadlocks are the store detecting a conflicting
// concurrent writer; unique violations mean two transactions raced past each
// other's reads. Both are safe to retry. Everything else is unexpected.
func classifyStoreError(op string, err error) *TxError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return &TxError{
				Code:      CodeTransactionAborted,
				Message:   op + " aborted by concurrent transaction",
				Retryable: true,
				Err:       err,
			}
		case "23505": // unique_violation
			return &TxError{
				Code:      CodeConcurrentModification,
				Message:   op + " lost a write race",
				Retryable: true,
				Err:       err,
			}
		}
	}
	return &TxError{
		Code:    CodeTransactionFailed,
		Message: op + " failed",
		Err:     err,
	}
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"orgdata/internal/types"
)

// txHandle is the slice of pgx.Tx the coordinator needs: statement
// execution plus the commit decision.
type txHandle interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type contextKey string

const txStoreKey contextKey = "tx_store"

func withTxStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, txStoreKey, s)
}

func txStoreFrom(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(txStoreKey).(*Store)
	return s, ok
}

// TxManager coordinates transactions. Work submitted through RunInTx
// executes on a single connection and commits or rolls back as a unit;
// nested RunInTx calls join the surrounding transaction instead of
// opening their own.
type TxManager struct {
	begin   func(ctx context.Context) (txHandle, error)
	store   *Store
	log     zerolog.Logger
	timeout time.Duration
}

// NewTxManager creates a TxManager that opens transactions on the
// given pool. timeout bounds each outermost transaction from begin
// through commit.
func NewTxManager(pool *pgxpool.Pool, log zerolog.Logger, timeout time.Duration) *TxManager {
	return &TxManager{
		begin: func(ctx context.Context) (txHandle, error) {
			return pool.Begin(ctx)
		},
		store:   NewStore(pool),
		log:     log,
		timeout: timeout,
	}
}

// Store returns the non-transactional store bound to the pool.
func (m *TxManager) Store() *Store {
	return m.store
}

// RunInTx runs fn inside a transaction. The store passed to fn is
// bound to the transaction's connection, so reads within fn observe
// writes made earlier in the same transaction. fn returning nil
// commits; fn returning an error or panicking rolls back, in which
// case none of its writes survive.
//
// If ctx already carries a transaction opened by a TxManager, fn joins
// it: no new transaction is opened and the outermost caller keeps the
// only commit decision. The configured timeout covers the whole
// outermost transaction; when it expires the work is rolled back and a
// transaction-timeout error is returned. Caller cancellation also
// rolls back, surfacing as a canceled error.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, store *Store) error) error {
	if store, ok := txStoreFrom(ctx); ok {
		return fn(ctx, store)
	}

	txCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.begin(txCtx)
	if err != nil {
		return m.mapTxErr(ctx, txCtx, translateErr("begin transaction", err))
	}

	txLog := m.log.With().Str("tx_id", uuid.NewString()).Logger()
	if rid := types.GetRequestID(ctx); rid != "" {
		txLog = txLog.With().Str("request_id", rid).Logger()
	}
	txLog.Debug().Msg("transaction started")

	// Rollbacks run on an uncancelable context: a transaction that
	// died by timeout or cancellation still has to be cleaned up.
	rollbackCtx := context.WithoutCancel(ctx)

	defer func() {
		if p := recover(); p != nil {
			m.rollback(rollbackCtx, tx, txLog, "panic")
			panic(p)
		}
	}()

	store := m.store.WithDB(tx)
	if err := fn(withTxStore(txCtx, store), store); err != nil {
		m.rollback(rollbackCtx, tx, txLog, "error")
		return m.mapTxErr(ctx, txCtx, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		m.rollback(rollbackCtx, tx, txLog, "failed commit")
		return m.mapTxErr(ctx, txCtx, translateErr("commit transaction", err))
	}

	txLog.Debug().Msg("transaction committed")
	return nil
}

func (m *TxManager) rollback(ctx context.Context, tx txHandle, log zerolog.Logger, reason string) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Error().Err(err).Str("reason", reason).Msg("rollback failed")
		return
	}
	log.Debug().Str("reason", reason).Msg("transaction rolled back")
}

// mapTxErr distinguishes the transaction budget expiring from the
// caller's own context ending. Only the former becomes a
// transaction-timeout error; everything else passes through.
func (m *TxManager) mapTxErr(parent, txCtx context.Context, err error) error {
	if errors.Is(txCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return types.NewAppErrorWithDetails(types.ErrCodeTxTimeout,
			"transaction exceeded its time budget", err,
			map[string]any{"timeout": m.timeout.String()})
	}
	return err
}

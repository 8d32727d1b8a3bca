package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Reintenta la transacción completa ante fallos de serialización o deadlock.
type TxRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
	log        zerolog.Logger
}

// NewTxRunner construye el runner con el pool. maxRetries < 1 se trata como 1 intento.
func NewTxRunner(pool *pgxpool.Pool, maxRetries int, log zerolog.Logger) *TxRunner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TxRunner{pool: pool, maxRetries: maxRetries, log: log}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Agotados los reintentos devuelve domain.ErrConcurrencyConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		lastErr = err
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("transacción en conflicto, reintentando")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * 10 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := repository.TxRepositories{
		Items:     NewInventoryItemRepository(tx),
		Batches:   NewBatchRepository(tx),
		Movements: NewStockMovementRepository(tx),
		Sales:     NewSaleRepository(tx),
		Outbox:    NewOutboxRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

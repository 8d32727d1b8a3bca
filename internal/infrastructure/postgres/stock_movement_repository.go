package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro append-only; la secuencia la asigna el BIGSERIAL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta el movimiento y devuelve la secuencia asignada en m.Sequence.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, inventory_item_id, batch_id, direction, quantity, previous_balance,
			new_balance, reference_type, reference_id, reason, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.InventoryItemID, nullIfEmpty(m.BatchID), m.Direction, m.Quantity, m.PreviousBalance,
		m.NewBalance, m.ReferenceType, m.ReferenceID, m.Reason, m.PerformedBy, m.CreatedAt,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByItem devuelve los movimientos del ítem por secuencia ascendente.
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sequence, inventory_item_id, batch_id::text, direction, quantity, previous_balance,
		       new_balance, reference_type, reference_id, reason, performed_by, created_at
		FROM stock_movements WHERE inventory_item_id = $1 ORDER BY sequence`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var batchID *string
		if err := rows.Scan(
			&m.ID, &m.Sequence, &m.InventoryItemID, &batchID, &m.Direction, &m.Quantity, &m.PreviousBalance,
			&m.NewBalance, &m.ReferenceType, &m.ReferenceID, &m.Reason, &m.PerformedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.BatchID = stringOrEmpty(batchID)
		out = append(out, &m)
	}
	return out, rows.Err()
}

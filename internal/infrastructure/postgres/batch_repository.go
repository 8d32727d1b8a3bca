package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo persiste lotes de inventario.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `b.id, b.inventory_item_id, b.organization_id, b.product_id, b.batch_number, b.quantity,
	b.initial_quantity, b.cost_price, b.expiry_date, b.received_date, b.status, b.created_at, b.updated_at`

func scanBatch(row pgx.Row) (*entity.InventoryBatch, error) {
	var b entity.InventoryBatch
	err := row.Scan(
		&b.ID, &b.InventoryItemID, &b.OrganizationID, &b.ProductID, &b.BatchNumber, &b.Quantity,
		&b.InitialQuantity, &b.CostPrice, &b.ExpiryDate, &b.ReceivedDate, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBatches(rows pgx.Rows) ([]*entity.InventoryBatch, error) {
	defer rows.Close()
	var out []*entity.InventoryBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserta un lote.
func (r *BatchRepo) Create(ctx context.Context, b *entity.InventoryBatch) error {
	query := `
		INSERT INTO inventory_batches (id, inventory_item_id, organization_id, product_id, batch_number, quantity,
			initial_quantity, cost_price, expiry_date, received_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.InventoryItemID, b.OrganizationID, b.ProductID, b.BatchNumber, b.Quantity,
		b.InitialQuantity, b.CostPrice, b.ExpiryDate, b.ReceivedDate, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// Update persiste cantidad, cantidad inicial y estado.
func (r *BatchRepo) Update(ctx context.Context, b *entity.InventoryBatch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_batches
		SET quantity = $2, initial_quantity = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		b.ID, b.Quantity, b.InitialQuantity, b.Status, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene un lote; (nil, nil) si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.InventoryBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM inventory_batches b WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListByItem devuelve los lotes del ítem en orden FEFO.
func (r *BatchRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.InventoryBatch, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+batchColumns+` FROM inventory_batches b
		WHERE b.inventory_item_id = $1
		ORDER BY b.expiry_date, b.received_date, b.id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return collectBatches(rows)
}

// ListExpiring devuelve lotes con cantidad que vencen hasta f.Before.
func (r *BatchRepo) ListExpiring(ctx context.Context, f repository.ExpiringFilter) ([]*entity.InventoryBatch, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + batchColumns + ` FROM inventory_batches b
		JOIN inventory_items i ON i.id = b.inventory_item_id
		WHERE b.quantity > 0 AND b.status <> 'EXHAUSTED' AND b.expiry_date <= $1`)
	args := []any{f.Before}
	if f.OrganizationID != "" {
		args = append(args, f.OrganizationID)
		fmt.Fprintf(&sb, " AND b.organization_id = $%d", len(args))
	}
	if f.FacilityID != "" {
		args = append(args, f.FacilityID)
		fmt.Fprintf(&sb, " AND i.facility_id = $%d", len(args))
	}
	sb.WriteString(" ORDER BY b.expiry_date, b.id")

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list expiring batches: %w", err)
	}
	return collectBatches(rows)
}

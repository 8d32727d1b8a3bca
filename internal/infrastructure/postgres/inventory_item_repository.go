package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo persiste el agregado de stock por (producto, sucursal).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

const itemColumns = `id, organization_id, facility_id, product_id, quantity_on_hand, quantity_reserved,
	quantity_available, min_stock_level, average_cost, status, is_active, on_hold, hold_reason, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var it entity.InventoryItem
	err := row.Scan(
		&it.ID, &it.OrganizationID, &it.FacilityID, &it.ProductID, &it.QuantityOnHand, &it.QuantityReserved,
		&it.QuantityAvailable, &it.MinStockLevel, &it.AverageCost, &it.Status, &it.IsActive, &it.OnHold,
		&it.HoldReason, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *InventoryItemRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.InventoryItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

// GetByID obtiene el ítem sin bloquear.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.getOne(ctx, "get inventory item", `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
}

// GetByProductAndFacility busca el ítem por su clave natural.
func (r *InventoryItemRepo) GetByProductAndFacility(ctx context.Context, productID, facilityID string) (*entity.InventoryItem, error) {
	return r.getOne(ctx, "get inventory item by product",
		`SELECT `+itemColumns+` FROM inventory_items WHERE product_id = $1 AND facility_id = $2`, productID, facilityID)
}

// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE) hasta el fin de la transacción.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.getOne(ctx, "lock inventory item",
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id)
}

// CreateIfMissing inserta el ítem; si ya existe (producto, sucursal) no hace nada.
func (r *InventoryItemRepo) CreateIfMissing(ctx context.Context, it *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (product_id, facility_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.OrganizationID, it.FacilityID, it.ProductID, it.QuantityOnHand, it.QuantityReserved,
		it.QuantityAvailable, it.MinStockLevel, it.AverageCost, it.Status, it.IsActive, it.OnHold,
		it.HoldReason, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

// Update persiste cantidades, costo promedio y estado.
func (r *InventoryItemRepo) Update(ctx context.Context, it *entity.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET quantity_on_hand = $2, quantity_reserved = $3, quantity_available = $4, min_stock_level = $5,
		    average_cost = $6, status = $7, is_active = $8, on_hold = $9, hold_reason = $10, updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.QuantityOnHand, it.QuantityReserved, it.QuantityAvailable, it.MinStockLevel,
		it.AverageCost, it.Status, it.IsActive, it.OnHold, it.HoldReason, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByFacility devuelve los ítems de la sucursal.
func (r *InventoryItemRepo) ListByFacility(ctx context.Context, facilityID string) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE facility_id = $1 ORDER BY id`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SetHold marca o libera la retención de conciliación.
func (r *InventoryItemRepo) SetHold(ctx context.Context, id string, onHold bool, reason string) error {
	if !onHold {
		reason = ""
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET on_hold = $2, hold_reason = $3, updated_at = $4 WHERE id = $1`,
		id, onHold, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

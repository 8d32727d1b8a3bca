package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo persiste la venta con líneas, asignaciones por lote y pagos.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera, líneas, asignaciones y pagos. Debe ejecutarse dentro de una transacción.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, organization_id, facility_id, sale_number, sale_type, status, payment_status,
			subtotal, discount_amount, tax_amount, total_amount, total_paid, change_given, notes,
			sold_by, sold_at, voided_by, voided_at, void_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		s.ID, s.OrganizationID, s.FacilityID, s.SaleNumber, s.SaleType, s.Status, s.PaymentStatus,
		s.Subtotal, s.DiscountAmount, s.TaxAmount, s.TotalAmount, s.TotalPaid, s.ChangeGiven, s.Notes,
		s.SoldBy, s.SoldAt, s.VoidedBy, s.VoidedAt, s.VoidReason, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSaleNumber
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	for n, it := range s.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, line_no, product_id, product_name, product_sku, inventory_item_id,
				batch_id, quantity, unit_price, cost_price, gross_amount, discount_amount, tax_rate, tax_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			it.ID, s.ID, n+1, it.ProductID, it.ProductName, it.ProductSKU, it.InventoryItemID,
			nullIfEmpty(it.BatchID), it.Quantity, it.UnitPrice, it.CostPrice, it.GrossAmount,
			it.DiscountAmount, it.TaxRate, it.TaxAmount, it.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
		for pos, a := range it.Allocations {
			_, err := r.q.Exec(ctx, `
				INSERT INTO sale_item_allocations (sale_item_id, position, batch_id, batch_number, expiry_date, cost_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				it.ID, pos+1, a.BatchID, a.BatchNumber, a.ExpiryDate, a.CostPrice, a.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert sale allocation: %w", err)
			}
		}
	}

	for _, p := range s.Payments {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_payments (id, sale_id, method, amount, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, s.ID, p.Method, p.Amount, p.Reference, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert sale payment: %w", err)
		}
	}
	return nil
}

const saleColumns = `id, organization_id, facility_id, sale_number, sale_type, status, payment_status,
	subtotal, discount_amount, tax_amount, total_amount, total_paid, change_given, notes,
	sold_by, sold_at, voided_by, voided_at, void_reason, created_at, updated_at`

// GetByID obtiene la venta completa; (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera de la venta (usado por la anulación).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.OrganizationID, &s.FacilityID, &s.SaleNumber, &s.SaleType, &s.Status, &s.PaymentStatus,
		&s.Subtotal, &s.DiscountAmount, &s.TaxAmount, &s.TotalAmount, &s.TotalPaid, &s.ChangeGiven, &s.Notes,
		&s.SoldBy, &s.SoldAt, &s.VoidedBy, &s.VoidedAt, &s.VoidReason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if err := r.loadItems(ctx, &s); err != nil {
		return nil, err
	}
	if err := r.loadPayments(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) loadItems(ctx context.Context, s *entity.Sale) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, product_sku, inventory_item_id, batch_id::text,
		       quantity, unit_price, cost_price, gross_amount, discount_amount, tax_rate, tax_amount, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY line_no`, s.ID)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	index := make(map[string]int)
	for rows.Next() {
		var it entity.SaleItem
		var batchID *string
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.ProductSKU, &it.InventoryItemID, &batchID,
			&it.Quantity, &it.UnitPrice, &it.CostPrice, &it.GrossAmount, &it.DiscountAmount, &it.TaxRate,
			&it.TaxAmount, &it.LineTotal,
		); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		it.BatchID = stringOrEmpty(batchID)
		index[it.ID] = len(s.Items)
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	allocRows, err := r.q.Query(ctx, `
		SELECT a.sale_item_id, a.batch_id, a.batch_number, a.expiry_date, a.cost_price, a.quantity
		FROM sale_item_allocations a
		JOIN sale_items i ON i.id = a.sale_item_id
		WHERE i.sale_id = $1
		ORDER BY a.sale_item_id, a.position`, s.ID)
	if err != nil {
		return fmt.Errorf("list sale allocations: %w", err)
	}
	defer allocRows.Close()
	for allocRows.Next() {
		var itemID string
		var a entity.BatchAllocation
		if err := allocRows.Scan(&itemID, &a.BatchID, &a.BatchNumber, &a.ExpiryDate, &a.CostPrice, &a.Quantity); err != nil {
			return fmt.Errorf("scan sale allocation: %w", err)
		}
		if i, ok := index[itemID]; ok {
			s.Items[i].Allocations = append(s.Items[i].Allocations, a)
		}
	}
	return allocRows.Err()
}

func (r *SaleRepo) loadPayments(ctx context.Context, s *entity.Sale) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, method, amount, reference, created_at
		FROM sale_payments WHERE sale_id = $1 ORDER BY created_at, id`, s.ID)
	if err != nil {
		return fmt.Errorf("list sale payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.SalePayment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Method, &p.Amount, &p.Reference, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan sale payment: %w", err)
		}
		s.Payments = append(s.Payments, p)
	}
	return rows.Err()
}

// UpdateStatus persiste estado, estado de pago y datos de anulación.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sales
		SET status = $2, payment_status = $3, voided_by = $4, voided_at = $5, void_reason = $6, updated_at = $7
		WHERE id = $1`,
		s.ID, s.Status, s.PaymentStatus, s.VoidedBy, s.VoidedAt, s.VoidReason, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextNumber incrementa el consecutivo de la clave. La fila queda bloqueada hasta el commit,
// así dos ventas de la misma sucursal y día no obtienen el mismo número.
func (r *SaleRepo) NextNumber(ctx context.Context, key string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO sale_number_sequences (key, last_number) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET last_number = sale_number_sequences.last_number + 1
		RETURNING last_number`, key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sale number: %w", err)
	}
	return n, nil
}

// NumberExists indica si ya hay una venta con ese número.
func (r *SaleRepo) NumberExists(ctx context.Context, saleNumber string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE sale_number = $1)`, saleNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("sale number exists: %w", err)
	}
	return exists, nil
}

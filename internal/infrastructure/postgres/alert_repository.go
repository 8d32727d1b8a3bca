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

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo persiste alertas; el índice parcial uq_alerts_active impide duplicar una ACTIVE.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador.
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, organization_id, facility_id, inventory_item_id, product_id, batch_id::text,
	type, severity, status, message, created_at, updated_at`

func scanAlert(row pgx.Row) (*entity.InventoryAlert, error) {
	var a entity.InventoryAlert
	var batchID *string
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.FacilityID, &a.InventoryItemID, &a.ProductID, &batchID,
		&a.Type, &a.Severity, &a.Status, &a.Message, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.BatchID = stringOrEmpty(batchID)
	return &a, nil
}

// FindActive devuelve la alerta ACTIVE de (ítem, tipo) o (nil, nil).
func (r *AlertRepo) FindActive(ctx context.Context, itemID, alertType string) (*entity.InventoryAlert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `
		SELECT `+alertColumns+` FROM inventory_alerts
		WHERE inventory_item_id = $1 AND type = $2 AND status = 'ACTIVE'`, itemID, alertType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active alert: %w", err)
	}
	return a, nil
}

// Create inserta la alerta; domain.ErrDuplicate si ya hay una ACTIVE para (ítem, tipo).
func (r *AlertRepo) Create(ctx context.Context, a *entity.InventoryAlert) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_alerts (id, organization_id, facility_id, inventory_item_id, product_id, batch_id,
			type, severity, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.OrganizationID, a.FacilityID, a.InventoryItemID, a.ProductID, nullIfEmpty(a.BatchID),
		a.Type, a.Severity, a.Status, a.Message, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// List devuelve alertas filtradas, más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.InventoryAlert, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + alertColumns + ` FROM inventory_alerts WHERE TRUE`)
	var args []any
	if f.OrganizationID != "" {
		args = append(args, f.OrganizationID)
		fmt.Fprintf(&sb, " AND organization_id = $%d", len(args))
	}
	if f.FacilityID != "" {
		args = append(args, f.FacilityID)
		fmt.Fprintf(&sb, " AND facility_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	appinventory "github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// VoidSaleInput datos de anulación.
type VoidSaleInput struct {
	Actor  entity.Actor
	SaleID string
	Reason string
}

// restoreAnomaly registra una asignación cuyo lote original ya no existía.
type restoreAnomaly struct {
	itemID        string
	originalBatch string
	newBatch      string
	quantity      int64
}

// raisedBatch registra un lote cuya cantidad inicial se amplió al restaurar, porque un
// ajuste de conteo posterior a la venta ya había repuesto unidades.
type raisedBatch struct {
	itemID   string
	batchID  string
	previous int64
	initial  int64
}

// VoidSale anula una venta COMPLETED: devuelve cada asignación a su lote (reactivando los
// agotados), escribe entradas SALE_INVOICE en el libro y marca la venta VOIDED. Si el lote
// original no existe, crea un lote de ajuste con los datos guardados en la asignación. Si la
// restauración supera la cantidad inicial del lote, ésta se amplía como en un ajuste positivo.
func (e *Engine) VoidSale(ctx context.Context, in VoidSaleInput) (*entity.Sale, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.SaleID == "" || in.Reason == "" {
		return nil, fmt.Errorf("%w: se requiere motivo de anulación", domain.ErrInvalidInput)
	}
	now := e.now().UTC()

	var (
		voided    *entity.Sale
		anomalies []restoreAnomaly
		raised    []raisedBatch
	)
	err := e.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		anomalies, raised = anomalies[:0], raised[:0]
		sale, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if sale.OrganizationID != in.Actor.OrganizationID {
			return domain.ErrForbidden
		}
		if sale.Status != entity.SaleStatusCompleted {
			return fmt.Errorf("%w: venta en estado %s", domain.ErrInvalidSaleState, sale.Status)
		}

		ids := make([]string, 0, len(sale.Items))
		seen := make(map[string]bool)
		for _, it := range sale.Items {
			if !seen[it.InventoryItemID] {
				seen[it.InventoryItemID] = true
				ids = append(ids, it.InventoryItemID)
			}
		}
		sort.Strings(ids)
		locked := make(map[string]*entity.InventoryItem, len(ids))
		for _, id := range ids {
			item, err := e.ledger.LockItem(ctx, repos, id)
			if err != nil {
				return err
			}
			locked[id] = item
		}

		for _, line := range sale.Items {
			item := locked[line.InventoryItemID]
			for _, a := range line.Allocations {
				batch, err := repos.Batches.GetByID(ctx, a.BatchID)
				if err != nil {
					return err
				}
				if batch == nil || batch.InventoryItemID != item.ID {
					batch, err = createAdjustmentBatch(ctx, repos, item, sale, a, now)
					if err != nil {
						return err
					}
					anomalies = append(anomalies, restoreAnomaly{
						itemID:        item.ID,
						originalBatch: a.BatchID,
						newBatch:      batch.ID,
						quantity:      a.Quantity,
					})
				}
				if batch.Quantity+a.Quantity > batch.InitialQuantity {
					raised = append(raised, raisedBatch{
						itemID:   item.ID,
						batchID:  batch.ID,
						previous: batch.InitialQuantity,
						initial:  batch.Quantity + a.Quantity,
					})
					batch.InitialQuantity = batch.Quantity + a.Quantity
				}
				if _, err := e.ledger.Post(ctx, repos, appinventory.Posting{
					Item:          item,
					Batch:         batch,
					Direction:     entity.MovementIn,
					Quantity:      a.Quantity,
					ReferenceType: entity.ReferenceSaleInvoice,
					ReferenceID:   sale.ID,
					Reason:        "anulación: " + in.Reason,
					PerformedBy:   in.Actor.UserID,
					At:            now,
				}); err != nil {
					return err
				}
			}
		}
		for _, id := range ids {
			if err := e.ledger.Verify(ctx, repos, locked[id]); err != nil {
				return err
			}
		}

		voidedAt := now
		sale.Status = entity.SaleStatusVoided
		sale.PaymentStatus = entity.PaymentStatusRefunded
		sale.VoidedBy = in.Actor.UserID
		sale.VoidedAt = &voidedAt
		sale.VoidReason = in.Reason
		sale.UpdatedAt = now
		if err := repos.Sales.UpdateStatus(ctx, sale); err != nil {
			return err
		}
		ev, err := newSaleEvent(entity.EventSaleVoided, sale, now)
		if err != nil {
			return err
		}
		if err := repos.Outbox.Insert(ctx, ev); err != nil {
			return err
		}
		voided = sale
		return nil
	})
	if err != nil {
		return nil, appinventory.HoldOnInconsistency(ctx, e.items, e.log, err)
	}
	for _, a := range anomalies {
		e.log.Warn().
			Str("sale_id", voided.ID).
			Str("inventory_item_id", a.itemID).
			Str("original_batch_id", a.originalBatch).
			Str("adjustment_batch_id", a.newBatch).
			Int64("quantity", a.quantity).
			Msg("lote original no encontrado al anular, se creó lote de ajuste")
	}
	for _, r := range raised {
		e.log.Warn().
			Str("sale_id", voided.ID).
			Str("inventory_item_id", r.itemID).
			Str("batch_id", r.batchID).
			Int64("previous_initial_quantity", r.previous).
			Int64("initial_quantity", r.initial).
			Msg("restauración supera la cantidad inicial del lote, se amplió")
	}
	e.log.Info().Str("sale_id", voided.ID).Str("sale_number", voided.SaleNumber).Str("reason", in.Reason).Msg("venta anulada")
	return voided, nil
}

func createAdjustmentBatch(
	ctx context.Context,
	repos repository.TxRepositories,
	item *entity.InventoryItem,
	sale *entity.Sale,
	a entity.BatchAllocation,
	now time.Time,
) (*entity.InventoryBatch, error) {
	expiry := a.ExpiryDate
	if expiry.IsZero() {
		expiry = now
	}
	b := &entity.InventoryBatch{
		ID:              uuid.New().String(),
		InventoryItemID: item.ID,
		OrganizationID:  item.OrganizationID,
		ProductID:       item.ProductID,
		BatchNumber:     "ADJ-" + sale.SaleNumber,
		Quantity:        0,
		InitialQuantity: a.Quantity,
		CostPrice:       a.CostPrice,
		ExpiryDate:      expiry,
		ReceivedDate:    now,
		Status:          entity.BatchStatusAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if b.Expired(now) {
		b.Status = entity.BatchStatusExpired
	}
	if err := repos.Batches.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/application/dto"
	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// QueryUseCase expone el resumen de stock, el libro de movimientos y la conciliación.
type QueryUseCase struct {
	txRunner      repository.TxRunner
	facilities    repository.FacilityRepository
	items         repository.InventoryItemRepository
	batches       repository.BatchRepository
	movements     repository.StockMovementRepository
	thresholdDays int
	log           zerolog.Logger
	now           func() time.Time
}

// NewQueryUseCase construye el caso de uso. thresholdDays es la ventana de "por vencer" del resumen.
func NewQueryUseCase(
	txRunner repository.TxRunner,
	facilities repository.FacilityRepository,
	items repository.InventoryItemRepository,
	batches repository.BatchRepository,
	movements repository.StockMovementRepository,
	thresholdDays int,
	log zerolog.Logger,
) *QueryUseCase {
	if thresholdDays <= 0 {
		thresholdDays = 90
	}
	return &QueryUseCase{
		txRunner:      txRunner,
		facilities:    facilities,
		items:         items,
		batches:       batches,
		movements:     movements,
		thresholdDays: thresholdDays,
		log:           log,
		now:           time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *QueryUseCase) WithClock(now func() time.Time) *QueryUseCase {
	uc.now = now
	return uc
}

// GetSummary totaliza on-hand y disponible de la sucursal y cuenta ítems en stock bajo
// y lotes por vencer dentro del umbral.
func (uc *QueryUseCase) GetSummary(ctx context.Context, actor entity.Actor, facilityID string) (*dto.InventorySummary, error) {
	if facilityID == "" {
		return nil, domain.ErrInvalidInput
	}
	facility, err := uc.facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, domain.ErrNotFound
	}
	if facility.OrganizationID != actor.OrganizationID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.items.ListByFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	out := &dto.InventorySummary{FacilityID: facilityID, ThresholdDays: uc.thresholdDays}
	for _, it := range items {
		if !it.IsActive {
			continue
		}
		out.ItemCount++
		out.TotalOnHand += it.QuantityOnHand
		out.TotalAvailable += it.QuantityAvailable
		if it.QuantityOnHand <= it.MinStockLevel {
			out.LowStockCount++
		}
		if it.OnHold {
			out.OnHoldCount++
		}
	}
	now := uc.now().UTC()
	expiring, err := uc.batches.ListExpiring(ctx, repository.ExpiringFilter{
		FacilityID: facilityID,
		Before:     now.AddDate(0, 0, uc.thresholdDays),
	})
	if err != nil {
		return nil, err
	}
	for _, b := range expiring {
		if !b.Expired(now) {
			out.ExpiringCount++
		}
	}
	return out, nil
}

// ListMovements devuelve el libro del ítem en orden.
func (uc *QueryUseCase) ListMovements(ctx context.Context, actor entity.Actor, itemID string) ([]dto.MovementResponse, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.OrganizationID != actor.OrganizationID {
		return nil, domain.ErrForbidden
	}
	moves, err := uc.movements.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, dto.NewMovementResponse(m))
	}
	return out, nil
}

// ReconcileItem compara agregado, lotes y libro. Si lotes y libro coinciden, corrige el
// agregado cuando difiere y libera la retención; si no, deja el ítem retenido.
func (uc *QueryUseCase) ReconcileItem(ctx context.Context, actor entity.Actor, itemID string) (*dto.ReconciliationReport, error) {
	var report *dto.ReconciliationReport
	now := uc.now().UTC()
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		item, err := repos.Items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if item.OrganizationID != actor.OrganizationID {
			return domain.ErrForbidden
		}
		batches, err := repos.Batches.ListByItem(ctx, item.ID)
		if err != nil {
			return err
		}
		moves, err := repos.Movements.ListByItem(ctx, item.ID)
		if err != nil {
			return err
		}
		r := &dto.ReconciliationReport{
			InventoryItemID: item.ID,
			AggregateOnHand: item.QuantityOnHand,
			BatchOnHand:     inventory.BatchOnHand(batches),
		}
		ledgerOnHand, replayErr := inventory.ReplayBalance(item.ID, moves)
		r.LedgerOnHand = ledgerOnHand
		if replayErr != nil {
			r.LedgerError = replayErr.Error()
		}
		r.Consistent = replayErr == nil && r.LedgerOnHand == r.BatchOnHand

		if r.Consistent {
			if item.QuantityOnHand != r.BatchOnHand {
				item.QuantityOnHand = r.BatchOnHand
				item.QuantityAvailable = item.QuantityOnHand - item.QuantityReserved
				item.Status = inventory.DeriveStatus(item.QuantityOnHand, item.MinStockLevel)
				r.AggregateFixed = true
			}
			item.OnHold, item.HoldReason = false, ""
		} else {
			item.OnHold = true
			if item.HoldReason == "" {
				item.HoldReason = "conciliación fallida: lotes y libro no coinciden"
			}
		}
		item.UpdatedAt = now
		if err := repos.Items.Update(ctx, item); err != nil {
			return err
		}
		r.OnHold = item.OnHold
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev := uc.log.Info()
	if !report.Consistent {
		ev = uc.log.Warn()
	}
	ev.Str("inventory_item_id", itemID).Bool("consistent", report.Consistent).Bool("aggregate_fixed", report.AggregateFixed).Msg("conciliación de ítem")
	return report, nil
}

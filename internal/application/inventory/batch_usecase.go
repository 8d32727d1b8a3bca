package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// BatchUseCase registra recepciones, ajustes y cambios de estado de lotes, cada uno en
// una transacción con el ítem bloqueado.
type BatchUseCase struct {
	txRunner   repository.TxRunner
	ledger     *Ledger
	products   repository.ProductRepository
	facilities repository.FacilityRepository
	items      repository.InventoryItemRepository
	batches    repository.BatchRepository
	log        zerolog.Logger
	now        func() time.Time
}

// NewBatchUseCase construye el caso de uso.
func NewBatchUseCase(
	txRunner repository.TxRunner,
	ledger *Ledger,
	products repository.ProductRepository,
	facilities repository.FacilityRepository,
	items repository.InventoryItemRepository,
	batches repository.BatchRepository,
	log zerolog.Logger,
) *BatchUseCase {
	return &BatchUseCase{
		txRunner:   txRunner,
		ledger:     ledger,
		products:   products,
		facilities: facilities,
		items:      items,
		batches:    batches,
		log:        log,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *BatchUseCase) WithClock(now func() time.Time) *BatchUseCase {
	uc.now = now
	return uc
}

// ReceiveBatchInput datos de una recepción de mercancía.
type ReceiveBatchInput struct {
	Actor       entity.Actor
	FacilityID  string
	ProductID   string
	BatchNumber string
	Quantity    int64
	CostPrice   decimal.Decimal
	ExpiryDate  time.Time
	ReferenceID string
}

// ReceiveBatch crea el lote, crea el ítem si no existía, recalcula el costo promedio y
// registra la entrada PURCHASE_RECEIPT.
func (uc *BatchUseCase) ReceiveBatch(ctx context.Context, in ReceiveBatchInput) (*entity.InventoryBatch, error) {
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if in.FacilityID == "" || in.ProductID == "" || in.BatchNumber == "" || in.Quantity <= 0 ||
		in.CostPrice.IsNegative() || in.ExpiryDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	facility, err := uc.facilities.GetByID(ctx, in.FacilityID)
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, domain.ErrNotFound
	}
	if facility.OrganizationID != in.Actor.OrganizationID {
		return nil, domain.ErrForbidden
	}
	product, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.OrganizationID != in.Actor.OrganizationID {
		return nil, domain.ErrNotFound
	}

	now := uc.now().UTC()
	referenceID := in.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
	}
	var created *entity.InventoryBatch
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Items.CreateIfMissing(ctx, &entity.InventoryItem{
			ID:             uuid.New().String(),
			OrganizationID: facility.OrganizationID,
			FacilityID:     facility.ID,
			ProductID:      product.ID,
			MinStockLevel:  product.MinStockLevel,
			AverageCost:    decimal.Zero,
			Status:         entity.ItemStatusOutOfStock,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			return err
		}
		existing, err := repos.Items.GetByProductAndFacility(ctx, product.ID, facility.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		item, err := uc.ledger.LockItem(ctx, repos, existing.ID)
		if err != nil {
			return err
		}
		item.MinStockLevel = product.MinStockLevel
		item.AverageCost = inventory.WeightedAverageCost(item.QuantityOnHand, item.AverageCost, in.Quantity, in.CostPrice)

		batch := &entity.InventoryBatch{
			ID:              uuid.New().String(),
			InventoryItemID: item.ID,
			OrganizationID:  item.OrganizationID,
			ProductID:       item.ProductID,
			BatchNumber:     in.BatchNumber,
			Quantity:        0,
			InitialQuantity: in.Quantity,
			CostPrice:       in.CostPrice,
			ExpiryDate:      in.ExpiryDate,
			ReceivedDate:    now,
			Status:          entity.BatchStatusAvailable,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if batch.Expired(now) {
			batch.Status = entity.BatchStatusExpired
		}
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return err
		}
		if _, err := uc.ledger.Post(ctx, repos, Posting{
			Item:          item,
			Batch:         batch,
			Direction:     entity.MovementIn,
			Quantity:      in.Quantity,
			ReferenceType: entity.ReferencePurchaseReceipt,
			ReferenceID:   referenceID,
			PerformedBy:   in.Actor.UserID,
			At:            now,
		}); err != nil {
			return err
		}
		if err := uc.ledger.Verify(ctx, repos, item); err != nil {
			return err
		}
		created = batch
		return nil
	})
	if err != nil {
		return nil, HoldOnInconsistency(ctx, uc.items, uc.log, err)
	}
	uc.log.Info().Str("batch_id", created.ID).Str("product_id", created.ProductID).Int64("quantity", in.Quantity).Msg("lote recibido")
	return created, nil
}

// AdjustBatchInput ajuste manual de un lote. Delta positivo suma y negativo resta.
type AdjustBatchInput struct {
	Actor   entity.Actor
	BatchID string
	Delta   int64
	Reason  string
}

// AdjustBatch aplica un ajuste STOCK_ADJUSTMENT. Un ajuste positivo que supera la cantidad
// inicial la eleva; uno negativo nunca deja el lote por debajo de 0.
func (uc *BatchUseCase) AdjustBatch(ctx context.Context, in AdjustBatchInput) (*entity.StockMovement, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.BatchID == "" || in.Delta == 0 || in.Reason == "" {
		return nil, domain.ErrInvalidInput
	}
	batch, err := uc.ownedBatch(ctx, in.Actor, in.BatchID)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		item, err := uc.ledger.LockItem(ctx, repos, batch.InventoryItemID)
		if err != nil {
			return err
		}
		b, err := repos.Batches.GetByID(ctx, batch.ID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		p := Posting{
			Item:          item,
			Batch:         b,
			ReferenceType: entity.ReferenceStockAdjustment,
			ReferenceID:   uuid.New().String(),
			Reason:        in.Reason,
			PerformedBy:   in.Actor.UserID,
			At:            now,
		}
		if in.Delta > 0 {
			p.Direction, p.Quantity = entity.MovementIn, in.Delta
			if b.Quantity+in.Delta > b.InitialQuantity {
				b.InitialQuantity = b.Quantity + in.Delta
			}
		} else {
			p.Direction, p.Quantity = entity.MovementOut, -in.Delta
		}
		m, err := uc.ledger.Post(ctx, repos, p)
		if err != nil {
			return err
		}
		if err := uc.ledger.Verify(ctx, repos, item); err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, HoldOnInconsistency(ctx, uc.items, uc.log, err)
	}
	uc.log.Info().Str("batch_id", batch.ID).Int64("delta", in.Delta).Str("reason", in.Reason).Msg("ajuste de lote")
	return mov, nil
}

// SetBatchStatus mueve un lote entre AVAILABLE y QUARANTINED. No cambia cantidades.
func (uc *BatchUseCase) SetBatchStatus(ctx context.Context, actor entity.Actor, batchID, status string) (*entity.InventoryBatch, error) {
	if status != entity.BatchStatusAvailable && status != entity.BatchStatusQuarantined {
		return nil, domain.ErrInvalidInput
	}
	batch, err := uc.ownedBatch(ctx, actor, batchID)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var updated *entity.InventoryBatch
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		if _, err := uc.ledger.LockItem(ctx, repos, batch.InventoryItemID); err != nil {
			return err
		}
		b, err := repos.Batches.GetByID(ctx, batch.ID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		if b.Status != entity.BatchStatusAvailable && b.Status != entity.BatchStatusQuarantined {
			return fmt.Errorf("%w: lote en estado %s", domain.ErrConflict, b.Status)
		}
		if status == entity.BatchStatusAvailable && b.Expired(now) {
			return fmt.Errorf("%w: lote vencido", domain.ErrConflict)
		}
		b.Status = status
		b.UpdatedAt = now
		if err := repos.Batches.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ExpireBatches marca EXPIRED los lotes AVAILABLE con fecha vencida de la sucursal.
// Devuelve cuántos lotes cambió. Los ítems retenidos se omiten.
func (uc *BatchUseCase) ExpireBatches(ctx context.Context, facilityID string) (int, error) {
	now := uc.now().UTC()
	stale, err := uc.batches.ListExpiring(ctx, repository.ExpiringFilter{FacilityID: facilityID, Before: now})
	if err != nil {
		return 0, err
	}
	byItem := make(map[string][]string)
	for _, b := range stale {
		if b.Status == entity.BatchStatusAvailable && b.Expired(now) {
			byItem[b.InventoryItemID] = append(byItem[b.InventoryItemID], b.ID)
		}
	}
	expired := 0
	for itemID, ids := range byItem {
		n := 0
		err := uc.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
			n = 0
			if _, err := uc.ledger.LockItem(ctx, repos, itemID); err != nil {
				return err
			}
			for _, id := range ids {
				b, err := repos.Batches.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if b == nil || b.Status != entity.BatchStatusAvailable || !b.Expired(now) {
					continue
				}
				b.Status = entity.BatchStatusExpired
				b.UpdatedAt = now
				if err := repos.Batches.Update(ctx, b); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		if err == nil {
			expired += n
			continue
		}
		if ctx.Err() != nil {
			return expired, err
		}
		uc.log.Warn().Err(err).Str("inventory_item_id", itemID).Msg("no se pudieron vencer lotes del ítem")
	}
	return expired, nil
}

func (uc *BatchUseCase) ownedBatch(ctx context.Context, actor entity.Actor, batchID string) (*entity.InventoryBatch, error) {
	batch, err := uc.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	if batch.OrganizationID != actor.OrganizationID {
		return nil, domain.ErrForbidden
	}
	return batch, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// Posting describe un movimiento sobre un lote de un ítem ya bloqueado en la transacción.
type Posting struct {
	Item          *entity.InventoryItem
	Batch         *entity.InventoryBatch
	Direction     string
	Quantity      int64
	ReferenceType string
	ReferenceID   string
	Reason        string
	PerformedBy   string
	At            time.Time
}

// Ledger aplica movimientos al lote, al agregado y al libro usando los repositorios
// de la transacción del llamador. Si devuelve error el llamador debe hacer rollback.
type Ledger struct{}

// NewLedger construye el libro de inventario.
func NewLedger() *Ledger { return &Ledger{} }

// LockItem bloquea el ítem (SELECT FOR UPDATE) y rechaza los retenidos por conciliación.
func (l *Ledger) LockItem(ctx context.Context, repos repository.TxRepositories, itemID string) (*entity.InventoryItem, error) {
	item, err := repos.Items.GetForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.OnHold {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemOnHold, item.ID)
	}
	return item, nil
}

// Post registra un movimiento: ajusta el lote (EXHAUSTED al llegar a 0, reactivado al
// restaurar), recalcula el agregado con inventory.ApplyDelta y agrega la entrada al libro.
func (l *Ledger) Post(ctx context.Context, repos repository.TxRepositories, p Posting) (*entity.StockMovement, error) {
	item, batch := p.Item, p.Batch
	if batch.InventoryItemID != item.ID {
		return nil, &domain.ConsistencyError{ItemID: item.ID, Reason: fmt.Sprintf("lote %s no pertenece al ítem", batch.ID)}
	}
	if p.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	switch p.Direction {
	case entity.MovementOut:
		if batch.Quantity < p.Quantity {
			return nil, &domain.InsufficientStockError{ProductID: item.ProductID, Requested: p.Quantity, Available: batch.Quantity}
		}
		batch.Quantity -= p.Quantity
		if batch.Quantity == 0 {
			batch.Status = entity.BatchStatusExhausted
		}
	case entity.MovementIn:
		if batch.Quantity+p.Quantity > batch.InitialQuantity {
			return nil, &domain.ConsistencyError{
				ItemID: item.ID,
				Reason: fmt.Sprintf("lote %s superaría su cantidad inicial %d", batch.ID, batch.InitialQuantity),
			}
		}
		batch.Quantity += p.Quantity
		if batch.Status == entity.BatchStatusExhausted {
			batch.Status = entity.BatchStatusAvailable
			if batch.Expired(p.At) {
				batch.Status = entity.BatchStatusExpired
			}
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	previous := item.QuantityOnHand
	next, err := inventory.ApplyDelta(*item, p.Direction, p.Quantity)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = p.At
	*item = next
	batch.UpdatedAt = p.At

	if err := repos.Batches.Update(ctx, batch); err != nil {
		return nil, err
	}
	if err := repos.Items.Update(ctx, item); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		InventoryItemID: item.ID,
		BatchID:         batch.ID,
		Direction:       p.Direction,
		Quantity:        p.Quantity,
		PreviousBalance: previous,
		NewBalance:      item.QuantityOnHand,
		ReferenceType:   p.ReferenceType,
		ReferenceID:     p.ReferenceID,
		Reason:          p.Reason,
		PerformedBy:     p.PerformedBy,
		CreatedAt:       p.At,
	}
	if err := repos.Movements.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// Verify comprueba que el on-hand del ítem coincide con la suma de sus lotes.
func (l *Ledger) Verify(ctx context.Context, repos repository.TxRepositories, item *entity.InventoryItem) error {
	batches, err := repos.Batches.ListByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	return inventory.VerifyProjection(item, batches)
}

// NewPlan inicia un plan de consumo FEFO para una transacción.
func (l *Ledger) NewPlan(now time.Time) *ConsumptionPlan {
	return &ConsumptionPlan{
		now:     now,
		working: make(map[string][]*entity.InventoryBatch),
		loaded:  make(map[string]*entity.InventoryBatch),
	}
}

// ConsumptionPlan reserva cantidades contra copias de trabajo de los lotes para que varias
// líneas del mismo producto no cuenten dos veces la misma existencia.
type ConsumptionPlan struct {
	now     time.Time
	working map[string][]*entity.InventoryBatch
	loaded  map[string]*entity.InventoryBatch
}

// Allocate elige lotes FEFO para quantity unidades del ítem y las descuenta del plan.
func (p *ConsumptionPlan) Allocate(ctx context.Context, repos repository.TxRepositories, item *entity.InventoryItem, quantity int64) ([]entity.BatchAllocation, error) {
	work, ok := p.working[item.ID]
	if !ok {
		batches, err := repos.Batches.ListByItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		for _, b := range batches {
			p.loaded[b.ID] = b
			cp := *b
			work = append(work, &cp)
		}
		p.working[item.ID] = work
	}
	allocs, err := inventory.SelectBatchesForConsumption(work, quantity, p.now)
	if err != nil {
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			ise.ProductID = item.ProductID
		}
		return nil, err
	}
	byID := make(map[string]*entity.InventoryBatch, len(work))
	for _, b := range work {
		byID[b.ID] = b
	}
	for _, a := range allocs {
		byID[a.BatchID].Quantity -= a.Quantity
	}
	return allocs, nil
}

// Batch devuelve el lote tal como se cargó (sin las reservas del plan), para ejecutar los movimientos.
func (p *ConsumptionPlan) Batch(id string) *entity.InventoryBatch {
	return p.loaded[id]
}

// HoldOnInconsistency retiene el ítem fuera de la transacción fallida cuando err es un
// ConsistencyError. Devuelve err sin cambios.
func HoldOnInconsistency(ctx context.Context, items repository.InventoryItemRepository, log zerolog.Logger, err error) error {
	var ce *domain.ConsistencyError
	if !errors.As(err, &ce) {
		return err
	}
	log.Error().Str("inventory_item_id", ce.ItemID).Str("reason", ce.Reason).Msg("inconsistencia de inventario, ítem retenido")
	if ce.ItemID == "" {
		return err
	}
	if holdErr := items.SetHold(context.WithoutCancel(ctx), ce.ItemID, true, ce.Reason); holdErr != nil {
		log.Error().Err(holdErr).Str("inventory_item_id", ce.ItemID).Msg("no se pudo retener el ítem")
	}
	return err
}

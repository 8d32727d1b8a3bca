package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// SelectBatchesForConsumption elige lotes en orden FEFO (vencimiento más próximo primero,
// luego recepción más antigua) hasta cubrir quantity. Solo participan lotes AVAILABLE,
// con cantidad y no vencidos a la fecha now. No modifica los lotes recibidos.
// Si no alcanza devuelve *domain.InsufficientStockError (ProductID lo completa el llamador si falta).
func SelectBatchesForConsumption(batches []*entity.InventoryBatch, quantity int64, now time.Time) ([]entity.BatchAllocation, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	candidates := make([]*entity.InventoryBatch, 0, len(batches))
	var available int64
	for _, b := range batches {
		if b == nil || !b.Sellable(now) {
			continue
		}
		candidates = append(candidates, b)
		available += b.Quantity
	}
	if available < quantity {
		productID := ""
		if len(batches) > 0 && batches[0] != nil {
			productID = batches[0].ProductID
		}
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.ID < b.ID
	})

	remaining := quantity
	out := make([]entity.BatchAllocation, 0, 2)
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		out = append(out, entity.BatchAllocation{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			ExpiryDate:  b.ExpiryDate,
			CostPrice:   b.CostPrice,
			Quantity:    take,
		})
		remaining -= take
	}
	return out, nil
}

// SellableQuantity suma lo vendible de los lotes a la fecha dada.
func SellableQuantity(batches []*entity.InventoryBatch, now time.Time) int64 {
	var total int64
	for _, b := range batches {
		if b != nil && b.Sellable(now) {
			total += b.Quantity
		}
	}
	return total
}

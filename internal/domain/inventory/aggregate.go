package inventory

import (
	"fmt"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// DeriveStatus calcula el estado del ítem a partir de la cantidad y el mínimo.
func DeriveStatus(onHand, minStock int64) string {
	switch {
	case onHand <= 0:
		return entity.ItemStatusOutOfStock
	case onHand <= minStock:
		return entity.ItemStatusLowStock
	default:
		return entity.ItemStatusInStock
	}
}

// ApplyDelta aplica un movimiento al agregado y devuelve la nueva copia con
// disponible y estado recalculados. Nunca deja on-hand ni disponible en negativo.
func ApplyDelta(item entity.InventoryItem, direction string, quantity int64) (entity.InventoryItem, error) {
	if quantity <= 0 {
		return item, domain.ErrInvalidInput
	}
	switch direction {
	case entity.MovementIn:
		item.QuantityOnHand += quantity
	case entity.MovementOut:
		if item.QuantityOnHand-quantity < 0 {
			return item, &domain.ConsistencyError{
				ItemID: item.ID,
				Reason: fmt.Sprintf("salida de %d deja on-hand negativo (%d)", quantity, item.QuantityOnHand),
			}
		}
		item.QuantityOnHand -= quantity
	default:
		return item, domain.ErrInvalidInput
	}
	item.QuantityAvailable = item.QuantityOnHand - item.QuantityReserved
	if item.QuantityAvailable < 0 {
		return item, &domain.ConsistencyError{
			ItemID: item.ID,
			Reason: fmt.Sprintf("disponible negativo (%d) con reservado %d", item.QuantityAvailable, item.QuantityReserved),
		}
	}
	item.Status = DeriveStatus(item.QuantityOnHand, item.MinStockLevel)
	return item, nil
}

// BatchOnHand suma las cantidades de lotes no agotados; es la proyección que debe
// coincidir con QuantityOnHand del agregado.
func BatchOnHand(batches []*entity.InventoryBatch) int64 {
	var total int64
	for _, b := range batches {
		if b != nil && b.Status != entity.BatchStatusExhausted {
			total += b.Quantity
		}
	}
	return total
}

// VerifyProjection compara el agregado con sus lotes.
func VerifyProjection(item *entity.InventoryItem, batches []*entity.InventoryBatch) error {
	sum := BatchOnHand(batches)
	if sum != item.QuantityOnHand {
		return &domain.ConsistencyError{
			ItemID: item.ID,
			Reason: fmt.Sprintf("on-hand %d difiere de la suma de lotes %d", item.QuantityOnHand, sum),
		}
	}
	return nil
}

// ReplayBalance reconstruye el on-hand recorriendo el libro en orden. Falla si algún
// movimiento no encadena con el saldo anterior.
func ReplayBalance(itemID string, movements []*entity.StockMovement) (int64, error) {
	var balance int64
	for _, m := range movements {
		if m.PreviousBalance != balance {
			return balance, &domain.ConsistencyError{
				ItemID: itemID,
				Reason: fmt.Sprintf("movimiento %d parte de %d pero el saldo era %d", m.Sequence, m.PreviousBalance, balance),
			}
		}
		switch m.Direction {
		case entity.MovementIn:
			balance += m.Quantity
		case entity.MovementOut:
			balance -= m.Quantity
		}
		if m.NewBalance != balance {
			return balance, &domain.ConsistencyError{
				ItemID: itemID,
				Reason: fmt.Sprintf("movimiento %d registra saldo %d pero el cálculo da %d", m.Sequence, m.NewBalance, balance),
			}
		}
	}
	return balance, nil
}

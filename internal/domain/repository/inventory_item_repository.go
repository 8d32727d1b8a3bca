package repository

import (
	"context"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// InventoryItemRepository define el puerto de persistencia del agregado de stock.
// Los Get devuelven (nil, nil) si no existe.
type InventoryItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	GetByProductAndFacility(ctx context.Context, productID, facilityID string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	// CreateIfMissing inserta el ítem si no existe para (producto, sucursal); no falla si ya existe.
	CreateIfMissing(ctx context.Context, item *entity.InventoryItem) error
	Update(ctx context.Context, item *entity.InventoryItem) error
	ListByFacility(ctx context.Context, facilityID string) ([]*entity.InventoryItem, error)
	// SetHold marca o libera la retención de conciliación.
	SetHold(ctx context.Context, id string, onHold bool, reason string) error
}

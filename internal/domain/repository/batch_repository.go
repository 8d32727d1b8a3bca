package repository

import (
	"context"
	"time"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// ExpiringFilter selecciona lotes con cantidad que vencen hasta Before.
// OrganizationID o FacilityID acotan el alcance; vacíos no filtran.
type ExpiringFilter struct {
	OrganizationID string
	FacilityID     string
	Before         time.Time
}

// BatchRepository define el puerto de persistencia de lotes. Toda mutación de un lote
// ocurre con el ítem dueño bloqueado.
type BatchRepository interface {
	Create(ctx context.Context, b *entity.InventoryBatch) error
	Update(ctx context.Context, b *entity.InventoryBatch) error
	GetByID(ctx context.Context, id string) (*entity.InventoryBatch, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.InventoryBatch, error)
	ListExpiring(ctx context.Context, f ExpiringFilter) ([]*entity.InventoryBatch, error)
}

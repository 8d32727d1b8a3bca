package repository

import (
	"context"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// StockMovementRepository es el libro append-only de movimientos.
type StockMovementRepository interface {
	// Append asigna Sequence y persiste el movimiento.
	Append(ctx context.Context, m *entity.StockMovement) error
	// ListByItem devuelve los movimientos en orden de Sequence ascendente.
	ListByItem(ctx context.Context, itemID string) ([]*entity.StockMovement, error)
}

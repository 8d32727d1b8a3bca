package repository

import (
	"context"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// AlertFilter acota el listado de alertas; campos vacíos no filtran.
type AlertFilter struct {
	OrganizationID string
	FacilityID     string
	Status         string
}

// AlertRepository persiste alertas de inventario.
type AlertRepository interface {
	// FindActive devuelve la alerta ACTIVE de (ítem, tipo) o (nil, nil).
	FindActive(ctx context.Context, itemID, alertType string) (*entity.InventoryAlert, error)
	// Create devuelve domain.ErrDuplicate si ya hay una ACTIVE para (ítem, tipo).
	Create(ctx context.Context, a *entity.InventoryAlert) error
	List(ctx context.Context, f AlertFilter) ([]*entity.InventoryAlert, error)
}

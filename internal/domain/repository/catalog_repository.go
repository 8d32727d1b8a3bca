package repository

import (
	"context"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// ProductRepository expone el catálogo de productos en modo lectura.
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// FacilityRepository expone las sucursales.
type FacilityRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Facility, error)
	List(ctx context.Context) ([]*entity.Facility, error)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del agregado de inventario.
const (
	ItemStatusInStock    = "IN_STOCK"
	ItemStatusLowStock   = "LOW_STOCK"
	ItemStatusOutOfStock = "OUT_OF_STOCK"
)

// InventoryItem es el agregado de stock de un producto en una sucursal.
// QuantityOnHand debe coincidir con la suma de lotes no agotados.
type InventoryItem struct {
	ID                string
	OrganizationID    string
	FacilityID        string
	ProductID         string
	QuantityOnHand    int64
	QuantityReserved  int64
	QuantityAvailable int64
	MinStockLevel     int64
	AverageCost       decimal.Decimal
	Status            string
	IsActive          bool
	OnHold            bool // retenido pendiente de conciliación manual
	HoldReason        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es la vista de catálogo que necesita el motor de ventas (solo lectura).
// TaxRate es porcentaje (ej. 19 = 19%). CostPrice es el costo de referencia de catálogo;
// el costo real de una venta sale de los lotes consumidos.
type Product struct {
	ID                   string
	OrganizationID       string
	SKU                  string
	Name                 string
	CostPrice            decimal.Decimal
	SellingPrice         decimal.Decimal
	TaxRate              decimal.Decimal
	MinStockLevel        int64
	ReorderLevel         int64
	RequiresPrescription bool
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

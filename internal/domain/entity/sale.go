package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de venta.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusVoided    = "VOIDED"
)

// Estados de pago.
const (
	PaymentStatusPaid     = "PAID"
	PaymentStatusPartial  = "PARTIAL"
	PaymentStatusRefunded = "REFUNDED"
)

// Tipos de venta.
const (
	SaleTypeRetail       = "RETAIL"
	SaleTypePrescription = "PRESCRIPTION"
)

// Medios de pago aceptados.
const (
	PaymentMethodCash        = "CASH"
	PaymentMethodCard        = "CARD"
	PaymentMethodMobileMoney = "MOBILE_MONEY"
	PaymentMethodInsurance   = "INSURANCE"
)

// ValidPaymentMethod indica si el medio de pago es soportado.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobileMoney, PaymentMethodInsurance:
		return true
	}
	return false
}

// Sale es la cabecera de una venta registrada. Los totales no se reescriben tras anularse.
type Sale struct {
	ID             string
	OrganizationID string
	FacilityID     string
	SaleNumber     string
	SaleType       string
	Status         string
	PaymentStatus  string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	TotalPaid      decimal.Decimal
	ChangeGiven    decimal.Decimal
	Notes          string
	SoldBy         string
	SoldAt         time.Time
	VoidedBy       string
	VoidedAt       *time.Time
	VoidReason     string
	Items          []SaleItem
	Payments       []SalePayment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleItem es una línea de la venta, copia congelada del catálogo al momento del cobro.
// BatchID es el primer lote consumido; Allocations lista todos los lotes de los que salió
// la cantidad. CostPrice es el costo unitario ponderado por esas asignaciones.
type SaleItem struct {
	ID              string
	SaleID          string
	ProductID       string
	ProductName     string
	ProductSKU      string
	InventoryItemID string
	BatchID         string
	Quantity        int64
	UnitPrice       decimal.Decimal
	CostPrice       decimal.Decimal
	GrossAmount     decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         decimal.Decimal
	TaxAmount       decimal.Decimal
	LineTotal       decimal.Decimal
	Allocations     []BatchAllocation
}

// BatchAllocation es la cantidad tomada de un lote, con copia de sus datos para poder restaurar.
type BatchAllocation struct {
	BatchID     string
	BatchNumber string
	ExpiryDate  time.Time
	CostPrice   decimal.Decimal
	Quantity    int64
}

// SalePayment es un pago (posiblemente parcial) aplicado a la venta.
type SalePayment struct {
	ID        string
	SaleID    string
	Method    string
	Amount    decimal.Decimal
	Reference string
	CreatedAt time.Time
}

package entity

import "time"

// Dirección del movimiento.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// Tipos de referencia que originan un movimiento.
const (
	ReferenceSaleInvoice     = "SALE_INVOICE"
	ReferenceStockAdjustment = "STOCK_ADJUSTMENT"
	ReferencePurchaseReceipt = "PURCHASE_RECEIPT"
)

// StockMovement es una entrada inmutable del libro de inventario.
// Sequence ordena los movimientos de un ítem; PreviousBalance/NewBalance son del agregado.
type StockMovement struct {
	ID              string
	Sequence        int64
	InventoryItemID string
	BatchID         string
	Direction       string
	Quantity        int64
	PreviousBalance int64
	NewBalance      int64
	ReferenceType   string
	ReferenceID     string
	Reason          string
	PerformedBy     string
	CreatedAt       time.Time
}

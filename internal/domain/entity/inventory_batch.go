package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de lote.
const (
	BatchStatusAvailable   = "AVAILABLE"
	BatchStatusQuarantined = "QUARANTINED"
	BatchStatusExpired     = "EXPIRED"
	BatchStatusExhausted   = "EXHAUSTED"
)

// InventoryBatch es un lote recibido de un ítem, con fecha de vencimiento propia.
type InventoryBatch struct {
	ID              string
	InventoryItemID string
	OrganizationID  string
	ProductID       string
	BatchNumber     string
	Quantity        int64
	InitialQuantity int64
	CostPrice       decimal.Decimal
	ExpiryDate      time.Time
	ReceivedDate    time.Time
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Sellable indica si el lote puede participar en la selección FEFO a la fecha dada.
func (b *InventoryBatch) Sellable(now time.Time) bool {
	if b.Status != BatchStatusAvailable || b.Quantity <= 0 {
		return false
	}
	return !b.ExpiryDate.Before(startOfDay(now))
}

// Expired indica si el lote venció antes del día dado.
func (b *InventoryBatch) Expired(now time.Time) bool {
	return b.ExpiryDate.Before(startOfDay(now))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// ReceiveBatchRequest body para POST /api/inventory/batches.
type ReceiveBatchRequest struct {
	FacilityID  string          `json:"facility_id"`
	ProductID   string          `json:"product_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    int64           `json:"quantity"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	ExpiryDate  string          `json:"expiry_date"` // YYYY-MM-DD
	ReferenceID string          `json:"reference_id,omitempty"`
}

// AdjustBatchRequest body para POST /api/inventory/batches/:id/adjust. Delta positivo suma, negativo resta.
type AdjustBatchRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

// BatchStatusRequest body para PATCH /api/inventory/batches/:id/status.
type BatchStatusRequest struct {
	Status string `json:"status"`
}

// BatchResponse lote en respuestas.
type BatchResponse struct {
	ID              string          `json:"id"`
	InventoryItemID string          `json:"inventory_item_id"`
	ProductID       string          `json:"product_id"`
	BatchNumber     string          `json:"batch_number"`
	Quantity        int64           `json:"quantity"`
	InitialQuantity int64           `json:"initial_quantity"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	ExpiryDate      string          `json:"expiry_date"`
	ReceivedDate    time.Time       `json:"received_date"`
	Status          string          `json:"status"`
}

// NewBatchResponse mapea un lote.
func NewBatchResponse(b *entity.InventoryBatch) BatchResponse {
	return BatchResponse{
		ID:              b.ID,
		InventoryItemID: b.InventoryItemID,
		ProductID:       b.ProductID,
		BatchNumber:     b.BatchNumber,
		Quantity:        b.Quantity,
		InitialQuantity: b.InitialQuantity,
		CostPrice:       b.CostPrice,
		ExpiryDate:      b.ExpiryDate.Format("2006-01-02"),
		ReceivedDate:    b.ReceivedDate,
		Status:          b.Status,
	}
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID              string    `json:"id"`
	Sequence        int64     `json:"sequence"`
	BatchID         string    `json:"batch_id"`
	Direction       string    `json:"direction"`
	Quantity        int64     `json:"quantity"`
	PreviousBalance int64     `json:"previous_balance"`
	NewBalance      int64     `json:"new_balance"`
	ReferenceType   string    `json:"reference_type"`
	ReferenceID     string    `json:"reference_id"`
	Reason          string    `json:"reason,omitempty"`
	PerformedBy     string    `json:"performed_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMovementResponse mapea un movimiento.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		Sequence:        m.Sequence,
		BatchID:         m.BatchID,
		Direction:       m.Direction,
		Quantity:        m.Quantity,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Reason:          m.Reason,
		PerformedBy:     m.PerformedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// InventorySummary resumen de stock de una sucursal.
type InventorySummary struct {
	FacilityID     string `json:"facility_id"`
	ItemCount      int    `json:"item_count"`
	TotalOnHand    int64  `json:"total_on_hand"`
	TotalAvailable int64  `json:"total_available"`
	LowStockCount  int    `json:"low_stock_count"`
	ExpiringCount  int    `json:"expiring_count"`
	OnHoldCount    int    `json:"on_hold_count"`
	ThresholdDays  int    `json:"expiry_threshold_days"`
}

// ReconciliationReport resultado de conciliar un ítem contra sus lotes y su libro.
type ReconciliationReport struct {
	InventoryItemID string `json:"inventory_item_id"`
	AggregateOnHand int64  `json:"aggregate_on_hand"`
	BatchOnHand     int64  `json:"batch_on_hand"`
	LedgerOnHand    int64  `json:"ledger_on_hand"`
	LedgerError     string `json:"ledger_error,omitempty"`
	Consistent      bool   `json:"consistent"`
	AggregateFixed  bool   `json:"aggregate_fixed"`
	OnHold          bool   `json:"on_hold"`
}

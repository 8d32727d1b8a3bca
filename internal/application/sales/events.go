package sales

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

type saleEventLine struct {
	ProductID string   `json:"product_id"`
	Quantity  int64    `json:"quantity"`
	BatchIDs  []string `json:"batch_ids"`
}

// saleEvent es el payload publicado para sale.completed y sale.voided.
type saleEvent struct {
	SaleID         string          `json:"sale_id"`
	SaleNumber     string          `json:"sale_number"`
	OrganizationID string          `json:"organization_id"`
	FacilityID     string          `json:"facility_id"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Reason         string          `json:"reason,omitempty"`
	Lines          []saleEventLine `json:"lines"`
}

func newSaleEvent(eventType string, sale *entity.Sale, at time.Time) (*entity.OutboxEvent, error) {
	ev := saleEvent{
		SaleID:         sale.ID,
		SaleNumber:     sale.SaleNumber,
		OrganizationID: sale.OrganizationID,
		FacilityID:     sale.FacilityID,
		Status:         sale.Status,
		TotalAmount:    sale.TotalAmount,
		OccurredAt:     at,
		Reason:         sale.VoidReason,
		Lines:          make([]saleEventLine, 0, len(sale.Items)),
	}
	for _, it := range sale.Items {
		line := saleEventLine{ProductID: it.ProductID, Quantity: it.Quantity}
		for _, a := range it.Allocations {
			line.BatchIDs = append(line.BatchIDs, a.BatchID)
		}
		ev.Lines = append(ev.Lines, line)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &entity.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "sale",
		AggregateID:   sale.ID,
		EventType:     eventType,
		Payload:       payload,
		Status:        entity.OutboxStatusPending,
		CreatedAt:     at,
	}, nil
}

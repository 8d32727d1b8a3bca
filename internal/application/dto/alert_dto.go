package dto

import (
	"time"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// AlertResponse alerta de inventario.
type AlertResponse struct {
	ID              string    `json:"id"`
	FacilityID      string    `json:"facility_id"`
	InventoryItemID string    `json:"inventory_item_id"`
	ProductID       string    `json:"product_id"`
	BatchID         string    `json:"batch_id,omitempty"`
	Type            string    `json:"type"`
	Severity        string    `json:"severity"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewAlertResponses mapea una lista de alertas.
func NewAlertResponses(alerts []*entity.InventoryAlert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertResponse{
			ID:              a.ID,
			FacilityID:      a.FacilityID,
			InventoryItemID: a.InventoryItemID,
			ProductID:       a.ProductID,
			BatchID:         a.BatchID,
			Type:            a.Type,
			Severity:        a.Severity,
			Status:          a.Status,
			Message:         a.Message,
			CreatedAt:       a.CreatedAt,
		})
	}
	return out
}

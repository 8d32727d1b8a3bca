package entity

import "time"

// Tipos de alerta.
const (
	AlertTypeLowStock = "LOW_STOCK"
	AlertTypeExpiring = "EXPIRING"
	AlertTypeExpired  = "EXPIRED"
)

// Severidad.
const (
	AlertSeverityLow      = "LOW"
	AlertSeverityMedium   = "MEDIUM"
	AlertSeverityHigh     = "HIGH"
	AlertSeverityCritical = "CRITICAL"
)

// Estados de alerta. Solo puede existir una ACTIVE por (ítem, tipo).
const (
	AlertStatusActive       = "ACTIVE"
	AlertStatusAcknowledged = "ACKNOWLEDGED"
	AlertStatusResolved     = "RESOLVED"
)

// InventoryAlert es una alerta de stock bajo o vencimiento sobre un ítem.
type InventoryAlert struct {
	ID              string
	OrganizationID  string
	FacilityID      string
	InventoryItemID string
	ProductID       string
	BatchID         string
	Type            string
	Severity        string
	Status          string
	Message         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

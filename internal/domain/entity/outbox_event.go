package entity

import (
	"encoding/json"
	"time"
)

// Eventos de dominio publicados vía outbox.
const (
	EventSaleCompleted = "sale.completed"
	EventSaleVoided    = "sale.voided"
)

// Estados del outbox.
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
)

// OutboxEvent se escribe en la misma transacción que la venta y se publica después.
type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	Status        string
	Attempts      int
	CreatedAt     time.Time
	SentAt        *time.Time
}

package entity

import "time"

// Facility representa una farmacia o sucursal donde se almacena y vende inventario.
// ReceiptPrefix sobrescribe el prefijo de numeración configurado si no está vacío.
type Facility struct {
	ID             string
	OrganizationID string
	Name           string
	Address        string
	ReceiptPrefix  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

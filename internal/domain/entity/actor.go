package entity

// Roles con acceso al motor.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
)

// Actor identifica a quien ejecuta la operación (extraído del JWT).
type Actor struct {
	UserID         string
	OrganizationID string
	Role           string
}

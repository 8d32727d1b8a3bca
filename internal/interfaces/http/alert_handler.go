package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmapos-api/internal/application/alerts"
	"github.com/jhoicas/farmapos-api/internal/application/dto"
)

// AlertHandler escaneos y listado de alertas de inventario (protegido).
type AlertHandler struct {
	scanner *alerts.Scanner
}

// NewAlertHandler construye el handler.
func NewAlertHandler(scanner *alerts.Scanner) *AlertHandler {
	return &AlertHandler{scanner: scanner}
}

// ScanLowStock godoc
// @Summary      Escanear stock bajo
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        facility_id  query    string  true  "ID de la sucursal"
// @Success      200          {array}  dto.AlertResponse
// @Failure      404          {object}  dto.ErrorResponse
// @Router       /api/alerts/scan/low-stock [post]
func (h *AlertHandler) ScanLowStock(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	created, err := h.scanner.ScanLowStock(c.UserContext(), actor, c.Query("facility_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"created": len(created), "alerts": dto.NewAlertResponses(created)})
}

// ScanExpiring godoc
// @Summary      Escanear lotes próximos a vencer
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        threshold_days  query    int  false  "Umbral en días (por defecto el configurado)"
// @Success      200             {array}  dto.AlertResponse
// @Router       /api/alerts/scan/expiring [post]
func (h *AlertHandler) ScanExpiring(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	created, err := h.scanner.ScanExpiring(c.UserContext(), actor, c.QueryInt("threshold_days", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"created": len(created), "alerts": dto.NewAlertResponses(created)})
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        facility_id  query    string  false  "Filtrar por sucursal"
// @Param        status       query    string  false  "ACTIVE | ACKNOWLEDGED | RESOLVED"
// @Success      200          {array}  dto.AlertResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.scanner.ListAlerts(c.UserContext(), actor, c.Query("facility_id"), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "alerts": dto.NewAlertResponses(list)})
}

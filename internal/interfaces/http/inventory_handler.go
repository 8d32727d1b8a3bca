package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmapos-api/internal/application/dto"
	"github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain"
)

// InventoryHandler maneja lotes, resumen, movimientos y conciliación (protegido).
type InventoryHandler struct {
	batches *inventory.BatchUseCase
	queries *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(batches *inventory.BatchUseCase, queries *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{batches: batches, queries: queries}
}

// ReceiveBatch godoc
// @Summary      Recibir lote
// @Description  Crea el lote, recalcula el costo promedio ponderado y registra la entrada PURCHASE_RECEIPT.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReceiveBatchRequest  true  "facility_id, product_id, batch_number, quantity, cost_price, expiry_date (YYYY-MM-DD)"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches [post]
func (h *InventoryHandler) ReceiveBatch(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReceiveBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	expiry, err := time.Parse("2006-01-02", in.ExpiryDate)
	if err != nil {
		return respondError(c, fmt.Errorf("%w: expiry_date debe ser YYYY-MM-DD", domain.ErrInvalidInput))
	}
	batch, err := h.batches.ReceiveBatch(c.UserContext(), inventory.ReceiveBatchInput{
		Actor:       actor,
		FacilityID:  in.FacilityID,
		ProductID:   in.ProductID,
		BatchNumber: in.BatchNumber,
		Quantity:    in.Quantity,
		CostPrice:   in.CostPrice,
		ExpiryDate:  expiry,
		ReferenceID: in.ReferenceID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBatchResponse(batch))
}

// AdjustBatch godoc
// @Summary      Ajustar cantidad de un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del lote"
// @Param        body  body      dto.AdjustBatchRequest  true  "delta (+/-) y motivo"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/adjust [post]
func (h *InventoryHandler) AdjustBatch(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AdjustBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	mov, err := h.batches.AdjustBatch(c.UserContext(), inventory.AdjustBatchInput{
		Actor: actor, BatchID: c.Params("id"), Delta: in.Delta, Reason: in.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewMovementResponse(mov))
}

// SetBatchStatus godoc
// @Summary      Poner o quitar cuarentena de un lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del lote"
// @Param        body  body      dto.BatchStatusRequest  true  "AVAILABLE | QUARANTINED"
// @Success      200   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/status [patch]
func (h *InventoryHandler) SetBatchStatus(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.BatchStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	batch, err := h.batches.SetBatchStatus(c.UserContext(), actor, c.Params("id"), in.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewBatchResponse(batch))
}

// GetSummary godoc
// @Summary      Resumen de inventario por sucursal
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        facility_id  query     string  true  "ID de la sucursal"
// @Success      200          {object}  dto.InventorySummary
// @Failure      403          {object}  dto.ErrorResponse
// @Failure      404          {object}  dto.ErrorResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) GetSummary(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	summary, err := h.queries.GetSummary(c.UserContext(), actor, c.Query("facility_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// ListMovements godoc
// @Summary      Libro de movimientos de un ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path     string  true   "ID del ítem de inventario"
// @Param        limit   query    int     false  "Máximo de movimientos (1-100, por defecto 20)"
// @Param        offset  query    int     false  "Desplazamiento"
// @Success      200  {array}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	list, err := h.queries.ListMovements(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	total := len(list)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)
	return c.JSON(fiber.Map{
		"total":     total,
		"movements": list[start:end],
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// Reconcile godoc
// @Summary      Conciliar ítem
// @Description  Compara agregado, suma de lotes y libro. Corrige el agregado si lotes y libro coinciden; si no, lo retiene.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem de inventario"
// @Success      200  {object}  dto.ReconciliationReport
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/reconcile [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	report, err := h.queries.ReconcileItem(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

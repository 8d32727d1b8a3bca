package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmapos-api/internal/application/dto"
	"github.com/jhoicas/farmapos-api/internal/application/sales"
)

// SaleHandler maneja las peticiones HTTP del punto de venta (protegido).
type SaleHandler struct {
	engine   *sales.Engine
	receipts *sales.ReceiptUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(engine *sales.Engine, receipts *sales.ReceiptUseCase) *SaleHandler {
	return &SaleHandler{engine: engine, receipts: receipts}
}

// ProcessSale godoc
// @Summary      Registrar venta
// @Description  Valida el carrito, descuenta stock por lotes FEFO, registra pagos y asigna número de recibo.
// @Description  Todo o nada: si una línea falla no se modifica ningún lote.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ProcessSaleRequest  true  "facility_id, items, payments, discount opcional"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) ProcessSale(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ProcessSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	cart, payments := sales.CartFromRequest(in)
	sale, err := h.engine.ProcessSale(c.UserContext(), sales.ProcessSaleInput{
		Actor:      actor,
		FacilityID: in.FacilityID,
		Cart:       cart,
		Payments:   payments,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSaleResponse(sale))
}

// GetByID godoc
// @Summary      Consultar venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	sale, err := h.engine.GetSale(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Void godoc
// @Summary      Anular venta
// @Description  Restituye cada cantidad al lote del que salió y marca la venta VOIDED/REFUNDED. Sólo admin o farmacéutico.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID de la venta"
// @Param        body  body      dto.VoidSaleRequest  true  "motivo"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/void [post]
func (h *SaleHandler) Void(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.VoidSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	sale, err := h.engine.VoidSale(c.UserContext(), sales.VoidSaleInput{Actor: actor, SaleID: c.Params("id"), Reason: in.Reason})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(sale))
}

// Receipt godoc
// @Summary      Recibo en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	pdf, filename, err := h.receipts.Render(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

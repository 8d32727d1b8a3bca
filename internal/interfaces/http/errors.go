package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmapos-api/internal/application/dto"
	"github.com/jhoicas/farmapos-api/internal/domain"
)

// InsufficientStockResponse detalle del 409 por falta de stock.
type InsufficientStockResponse struct {
	dto.ErrorResponse
	ProductID string `json:"product_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// respondError traduce errores de dominio a status HTTP + dto.ErrorResponse.
func respondError(c *fiber.Ctx, err error) error {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(InsufficientStockResponse{
			ErrorResponse: dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()},
			ProductID:     stockErr.ProductID,
			Requested:     stockErr.Requested,
			Available:     stockErr.Available,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidPayment):
		status, code = fiber.StatusBadRequest, "INVALID_PAYMENT"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInvalidSaleState):
		status, code = fiber.StatusConflict, "INVALID_SALE_STATE"
	case errors.Is(err, domain.ErrItemOnHold):
		status, code = fiber.StatusConflict, "ITEM_ON_HOLD"
	case errors.Is(err, domain.ErrConsistency):
		status, code = fiber.StatusConflict, "CONSISTENCY_ERROR"
	case errors.Is(err, domain.ErrDuplicateSaleNumber):
		status, code = fiber.StatusServiceUnavailable, "SALE_NUMBER_UNAVAILABLE"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, code = fiber.StatusServiceUnavailable, "CONCURRENCY_CONFLICT"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	}

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

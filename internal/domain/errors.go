package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvalidPayment      = errors.New("pago inválido")
	ErrDuplicateSaleNumber = errors.New("número de venta duplicado")
	ErrInvalidSaleState    = errors.New("estado de venta no permite la operación")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente")
	ErrConsistency         = errors.New("inconsistencia entre agregado y lotes")
	ErrItemOnHold          = errors.New("ítem retenido pendiente de conciliación")
)

// InsufficientStockError indica qué producto no pudo cubrirse y cuánto había disponible.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: solicitado %d, disponible %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidPaymentError describe por qué se rechazó el conjunto de pagos.
type InvalidPaymentError struct {
	Reason string
}

func (e *InvalidPaymentError) Error() string {
	return "pago inválido: " + e.Reason
}

func (e *InvalidPaymentError) Unwrap() error { return ErrInvalidPayment }

// ConsistencyError se produce cuando el agregado de un ítem diverge de la suma de sus lotes
// o del libro de movimientos. El ítem queda retenido hasta conciliarse.
type ConsistencyError struct {
	ItemID string
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistencia en ítem %s: %s", e.ItemID, e.Reason)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

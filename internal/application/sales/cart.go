package sales

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmapos-api/internal/application/dto"
	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/pricing"
)

// CartLine línea del carrito. UnitPrice nil o 0 usa el precio de catálogo.
type CartLine struct {
	ProductID string
	Quantity  int64
	UnitPrice *decimal.Decimal
	Discount  pricing.Discount
}

// Cart es el carrito validado que recibe el motor.
type Cart struct {
	SaleType string
	Lines    []CartLine
	Discount pricing.Discount
	Notes    string
}

// Validate revisa el carrito completo antes de cualquier mutación. SaleType vacío es RETAIL.
func (c *Cart) Validate() error {
	if c.SaleType == "" {
		c.SaleType = entity.SaleTypeRetail
	}
	if c.SaleType != entity.SaleTypeRetail && c.SaleType != entity.SaleTypePrescription {
		return fmt.Errorf("%w: tipo de venta %q", domain.ErrInvalidInput, c.SaleType)
	}
	if len(c.Lines) == 0 {
		return fmt.Errorf("%w: carrito vacío", domain.ErrInvalidInput)
	}
	for i := range c.Lines {
		l := &c.Lines[i]
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidInput, i+1, l.Quantity)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, i+1)
		}
		if err := l.Discount.Validate(); err != nil {
			return err
		}
	}
	return c.Discount.Validate()
}

// CartFromRequest convierte el body HTTP en carrito y pagos.
func CartFromRequest(req dto.ProcessSaleRequest) (Cart, []pricing.Payment) {
	cart := Cart{
		SaleType: strings.ToUpper(strings.TrimSpace(req.SaleType)),
		Lines:    make([]CartLine, 0, len(req.Items)),
		Notes:    req.Notes,
	}
	if req.Discount != nil {
		cart.Discount = pricing.Discount{Type: strings.ToUpper(req.Discount.Type), Value: req.Discount.Value}
	}
	for _, it := range req.Items {
		line := CartLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if it.Discount != nil {
			line.Discount = pricing.Discount{Type: strings.ToUpper(it.Discount.Type), Value: it.Discount.Value}
		}
		cart.Lines = append(cart.Lines, line)
	}
	payments := make([]pricing.Payment, 0, len(req.Payments))
	for _, p := range req.Payments {
		payments = append(payments, pricing.Payment{
			Method:    strings.ToUpper(strings.TrimSpace(p.Method)),
			Amount:    p.Amount,
			Reference: p.Reference,
		})
	}
	return cart, payments
}

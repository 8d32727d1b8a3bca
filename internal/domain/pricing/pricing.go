// Package pricing calcula totales de venta y liquidación de pagos con redondeo
// monetario a 2 decimales (mitad hacia arriba).
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// Tipos de descuento.
const (
	DiscountAmount  = "AMOUNT"
	DiscountPercent = "PERCENT"
)

var hundred = decimal.NewFromInt(100)

// RoundMoney redondea a 2 decimales; para montos positivos equivale a mitad hacia arriba.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Discount es un descuento por monto fijo o porcentaje.
type Discount struct {
	Type  string
	Value decimal.Decimal
}

// Validate rechaza valores negativos, tipos desconocidos y porcentajes mayores a 100.
func (d Discount) Validate() error {
	if d.Value.IsNegative() {
		return fmt.Errorf("%w: descuento negativo", domain.ErrInvalidInput)
	}
	switch d.Type {
	case "", DiscountAmount:
	case DiscountPercent:
		if d.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: porcentaje de descuento mayor a 100", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo de descuento %q", domain.ErrInvalidInput, d.Type)
	}
	return nil
}

// On devuelve el monto de descuento sobre base, ya redondeado.
func (d Discount) On(base decimal.Decimal) decimal.Decimal {
	if d.Value.IsZero() {
		return decimal.Zero
	}
	if d.Type == DiscountPercent {
		return RoundMoney(base.Mul(d.Value).Div(hundred))
	}
	return RoundMoney(d.Value)
}

// Line es una línea ya resuelta contra catálogo. TaxRate es porcentaje.
type Line struct {
	Quantity  int64
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	Discount  Discount
}

// LineTotals son los montos calculados de una línea. Total = Gross - Discount + Tax.
type LineTotals struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Totals agrega las líneas. Total = Subtotal - Discount + Tax.
type Totals struct {
	Lines    []LineTotals
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals aplica primero el descuento de línea, luego reparte el descuento de venta
// proporcionalmente al neto de cada línea (el residuo de redondeo va a la línea de mayor neto)
// y calcula el impuesto por línea sobre el monto ya descontado.
func ComputeTotals(lines []Line, saleDiscount Discount) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidInput)
	}
	if err := saleDiscount.Validate(); err != nil {
		return Totals{}, err
	}

	out := Totals{Lines: make([]LineTotals, len(lines))}
	nets := make([]decimal.Decimal, len(lines))
	sumNet := decimal.Zero
	largest := 0
	for i, l := range lines {
		if l.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: cantidad debe ser mayor a 0", domain.ErrInvalidInput)
		}
		if l.UnitPrice.IsNegative() || l.TaxRate.IsNegative() {
			return Totals{}, fmt.Errorf("%w: precio o impuesto negativo", domain.ErrInvalidInput)
		}
		if err := l.Discount.Validate(); err != nil {
			return Totals{}, err
		}
		gross := RoundMoney(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
		disc := l.Discount.On(gross)
		if disc.GreaterThan(gross) {
			return Totals{}, fmt.Errorf("%w: descuento de línea supera el bruto", domain.ErrInvalidInput)
		}
		out.Lines[i] = LineTotals{Gross: gross, Discount: disc}
		nets[i] = gross.Sub(disc)
		sumNet = sumNet.Add(nets[i])
		if nets[i].GreaterThan(nets[largest]) {
			largest = i
		}
	}

	saleDisc := saleDiscount.On(sumNet)
	if saleDisc.GreaterThan(sumNet) {
		return Totals{}, fmt.Errorf("%w: descuento de venta supera el neto", domain.ErrInvalidInput)
	}
	if saleDisc.IsPositive() {
		allocated := decimal.Zero
		for i := range lines {
			if i == largest {
				continue
			}
			share := RoundMoney(saleDisc.Mul(nets[i]).Div(sumNet))
			out.Lines[i].Discount = out.Lines[i].Discount.Add(share)
			allocated = allocated.Add(share)
		}
		rest := saleDisc.Sub(allocated)
		if rest.IsNegative() || rest.GreaterThan(nets[largest]) {
			return Totals{}, fmt.Errorf("%w: no se pudo repartir el descuento", domain.ErrInvalidInput)
		}
		out.Lines[largest].Discount = out.Lines[largest].Discount.Add(rest)
	}

	out.Subtotal, out.Discount, out.Tax = decimal.Zero, decimal.Zero, decimal.Zero
	for i, l := range lines {
		lt := &out.Lines[i]
		net := lt.Gross.Sub(lt.Discount)
		lt.Tax = RoundMoney(net.Mul(l.TaxRate).Div(hundred))
		lt.Total = net.Add(lt.Tax)
		out.Subtotal = out.Subtotal.Add(lt.Gross)
		out.Discount = out.Discount.Add(lt.Discount)
		out.Tax = out.Tax.Add(lt.Tax)
	}
	out.Total = out.Subtotal.Sub(out.Discount).Add(out.Tax)
	return out, nil
}

// Payment es un pago ofrecido por el cliente.
type Payment struct {
	Method    string
	Amount    decimal.Decimal
	Reference string
}

// Settlement es el resultado de aplicar los pagos al total.
type Settlement struct {
	TotalPaid decimal.Decimal
	Change    decimal.Decimal
	Status    string
}

// ValidatePayments revisa medios y montos sin mirar el total.
func ValidatePayments(payments []Payment) error {
	if len(payments) == 0 {
		return &domain.InvalidPaymentError{Reason: "se requiere al menos un pago"}
	}
	for i, p := range payments {
		if !entity.ValidPaymentMethod(p.Method) {
			return &domain.InvalidPaymentError{Reason: fmt.Sprintf("medio de pago %q no soportado", p.Method)}
		}
		if !p.Amount.IsPositive() {
			return &domain.InvalidPaymentError{Reason: fmt.Sprintf("el pago %d debe ser mayor a 0", i+1)}
		}
	}
	return nil
}

// Settle liquida los pagos: PAID si cubren el total, PARTIAL si no; el cambio nunca es negativo.
func Settle(total decimal.Decimal, payments []Payment) (Settlement, error) {
	if err := ValidatePayments(payments); err != nil {
		return Settlement{}, err
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(RoundMoney(p.Amount))
	}
	s := Settlement{TotalPaid: paid, Change: decimal.Zero, Status: entity.PaymentStatusPartial}
	if paid.GreaterThanOrEqual(total) {
		s.Status = entity.PaymentStatusPaid
		s.Change = paid.Sub(total)
	}
	return s, nil
}

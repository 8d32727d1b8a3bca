package pricing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got)
}

func TestRoundMoney_HalfUp(t *testing.T) {
	assertMoney(t, "1.01", pricing.RoundMoney(d("1.005")), "1.005")
	assertMoney(t, "2.34", pricing.RoundMoney(d("2.344")), "2.344")
	assertMoney(t, "2.35", pricing.RoundMoney(d("2.345")), "2.345")
}

func TestComputeTotals_SingleLineWithTax(t *testing.T) {
	tot, err := pricing.ComputeTotals([]pricing.Line{
		{Quantity: 3, UnitPrice: d("10.00"), TaxRate: d("19")},
	}, pricing.Discount{})
	require.NoError(t, err)

	assertMoney(t, "30.00", tot.Subtotal, "subtotal")
	assertMoney(t, "0", tot.Discount, "descuento")
	assertMoney(t, "5.70", tot.Tax, "impuesto")
	assertMoney(t, "35.70", tot.Total, "total")
}

func TestComputeTotals_LineDiscountBeforeTax(t *testing.T) {
	tot, err := pricing.ComputeTotals([]pricing.Line{
		{Quantity: 2, UnitPrice: d("50"), TaxRate: d("10"), Discount: pricing.Discount{Type: pricing.DiscountPercent, Value: d("10")}},
	}, pricing.Discount{})
	require.NoError(t, err)

	assertMoney(t, "100", tot.Subtotal, "subtotal")
	assertMoney(t, "10", tot.Discount, "descuento")
	assertMoney(t, "9", tot.Tax, "impuesto")
	assertMoney(t, "99", tot.Total, "total")
}

func TestComputeTotals_SaleDiscountProRata(t *testing.T) {
	tot, err := pricing.ComputeTotals([]pricing.Line{
		{Quantity: 1, UnitPrice: d("10.00")},
		{Quantity: 1, UnitPrice: d("10.00")},
		{Quantity: 1, UnitPrice: d("10.00")},
	}, pricing.Discount{Type: pricing.DiscountAmount, Value: d("1.00")})
	require.NoError(t, err)

	// 1.00 / 3 = 0.33 por línea, el residuo queda en la primera de las líneas de mayor neto
	assertMoney(t, "0.34", tot.Lines[0].Discount, "línea 0")
	assertMoney(t, "0.33", tot.Lines[1].Discount, "línea 1")
	assertMoney(t, "0.33", tot.Lines[2].Discount, "línea 2")
	assertMoney(t, "1.00", tot.Discount, "descuento total")
	assertMoney(t, "29.00", tot.Total, "total")

	sum := decimal.Zero
	for _, l := range tot.Lines {
		sum = sum.Add(l.Total)
	}
	assertMoney(t, tot.Total.String(), sum, "suma de líneas")
}

func TestComputeTotals_SaleDiscountRemainderGoesToLargestLine(t *testing.T) {
	tot, err := pricing.ComputeTotals([]pricing.Line{
		{Quantity: 1, UnitPrice: d("0.01")},
		{Quantity: 1, UnitPrice: d("30.00")},
		{Quantity: 1, UnitPrice: d("0.01")},
	}, pricing.Discount{Type: pricing.DiscountAmount, Value: d("1.00")})
	require.NoError(t, err)

	// las líneas de 0.01 redondean su parte a 0; la línea de 30.00 absorbe el descuento completo
	assertMoney(t, "0", tot.Lines[0].Discount, "línea 0")
	assertMoney(t, "1.00", tot.Lines[1].Discount, "línea 1")
	assertMoney(t, "0", tot.Lines[2].Discount, "línea 2")
	assertMoney(t, "0.01", tot.Lines[2].Total, "la última línea no queda negativa")
	assertMoney(t, "29.02", tot.Total, "total")
}

func TestComputeTotals_ConcreteTaxScenario(t *testing.T) {
	tot, err := pricing.ComputeTotals([]pricing.Line{
		{Quantity: 3, UnitPrice: d("2.00"), TaxRate: d("10")},
	}, pricing.Discount{})
	require.NoError(t, err)

	assertMoney(t, "6.00", tot.Subtotal, "subtotal")
	assertMoney(t, "0.60", tot.Tax, "impuesto")
	assertMoney(t, "6.60", tot.Total, "total")
}

func TestComputeTotals_Invalid(t *testing.T) {
	_, err := pricing.ComputeTotals(nil, pricing.Discount{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = pricing.ComputeTotals([]pricing.Line{{Quantity: 0, UnitPrice: d("1")}}, pricing.Discount{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = pricing.ComputeTotals([]pricing.Line{{Quantity: 1, UnitPrice: d("5"), Discount: pricing.Discount{Value: d("6")}}}, pricing.Discount{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = pricing.ComputeTotals([]pricing.Line{{Quantity: 1, UnitPrice: d("5")}}, pricing.Discount{Type: pricing.DiscountPercent, Value: d("120")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettle(t *testing.T) {
	s, err := pricing.Settle(d("35.70"), []pricing.Payment{
		{Method: entity.PaymentMethodCash, Amount: d("20")},
		{Method: entity.PaymentMethodCard, Amount: d("20")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, s.Status)
	assertMoney(t, "40", s.TotalPaid, "pagado")
	assertMoney(t, "4.30", s.Change, "cambio")

	s, err = pricing.Settle(d("35.70"), []pricing.Payment{{Method: entity.PaymentMethodInsurance, Amount: d("30")}})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPartial, s.Status)
	assert.True(t, s.Change.IsZero())
}

func TestSettle_InvalidPayments(t *testing.T) {
	cases := map[string][]pricing.Payment{
		"sin pagos":   nil,
		"monto cero":  {{Method: entity.PaymentMethodCash, Amount: decimal.Zero}},
		"negativo":    {{Method: entity.PaymentMethodCash, Amount: d("-1")}},
		"medio ajeno": {{Method: "CRYPTO", Amount: d("1")}},
	}
	for name, payments := range cases {
		_, err := pricing.Settle(d("10"), payments)
		require.Error(t, err, name)
		var pe *domain.InvalidPaymentError
		assert.True(t, errors.As(err, &pe), name)
		assert.ErrorIs(t, err, domain.ErrInvalidPayment, name)
	}
}

package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost recalcula el costo promedio ponderado al recibir un lote.
// Nuevo = ((OnHand * CostoActual) + (Recibido * CostoLote)) / (OnHand + Recibido), a 4 decimales.
func WeightedAverageCost(onHand int64, currentCost decimal.Decimal, received int64, receivedCost decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	total := onHand + received
	if total <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(onHand).Mul(currentCost).Add(decimal.NewFromInt(received).Mul(receivedCost))
	return num.Div(decimal.NewFromInt(total)).Round(4)
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// DiscountRequest descuento por monto (AMOUNT) o porcentaje (PERCENT).
type DiscountRequest struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// SaleLineRequest línea del carrito. UnitPrice vacío o 0 usa el precio de catálogo.
type SaleLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  *DiscountRequest `json:"discount,omitempty"`
}

// PaymentRequest pago ofrecido.
type PaymentRequest struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// ProcessSaleRequest body para POST /api/sales.
type ProcessSaleRequest struct {
	FacilityID string            `json:"facility_id"`
	SaleType   string            `json:"sale_type,omitempty"`
	Items      []SaleLineRequest `json:"items"`
	Discount   *DiscountRequest  `json:"discount,omitempty"`
	Payments   []PaymentRequest  `json:"payments"`
	Notes      string            `json:"notes,omitempty"`
}

// VoidSaleRequest body para POST /api/sales/:id/void.
type VoidSaleRequest struct {
	Reason string `json:"reason"`
}

// AllocationResponse cantidad tomada de un lote.
type AllocationResponse struct {
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	ExpiryDate  string `json:"expiry_date"`
	Quantity    int64  `json:"quantity"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	ProductID      string               `json:"product_id"`
	ProductName    string               `json:"product_name"`
	ProductSKU     string               `json:"product_sku"`
	BatchID        string               `json:"batch_id"`
	Quantity       int64                `json:"quantity"`
	UnitPrice      decimal.Decimal      `json:"unit_price"`
	CostPrice      decimal.Decimal      `json:"cost_price"`
	GrossAmount    decimal.Decimal      `json:"gross_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	TaxRate        decimal.Decimal      `json:"tax_rate"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	LineTotal      decimal.Decimal      `json:"line_total"`
	Allocations    []AllocationResponse `json:"allocations"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// SaleResponse venta completa.
type SaleResponse struct {
	ID             string             `json:"id"`
	SaleNumber     string             `json:"sale_number"`
	FacilityID     string             `json:"facility_id"`
	SaleType       string             `json:"sale_type"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"payment_status"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	TotalPaid      decimal.Decimal    `json:"total_paid"`
	ChangeGiven    decimal.Decimal    `json:"change_given"`
	Notes          string             `json:"notes,omitempty"`
	SoldBy         string             `json:"sold_by"`
	SoldAt         time.Time          `json:"sold_at"`
	VoidedBy       string             `json:"voided_by,omitempty"`
	VoidedAt       *time.Time         `json:"voided_at,omitempty"`
	VoidReason     string             `json:"void_reason,omitempty"`
	Items          []SaleItemResponse `json:"items"`
	Payments       []PaymentResponse  `json:"payments"`
}

// NewSaleResponse mapea la venta con sus líneas y pagos.
func NewSaleResponse(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		FacilityID:     s.FacilityID,
		SaleType:       s.SaleType,
		Status:         s.Status,
		PaymentStatus:  s.PaymentStatus,
		Subtotal:       s.Subtotal,
		DiscountAmount: s.DiscountAmount,
		TaxAmount:      s.TaxAmount,
		TotalAmount:    s.TotalAmount,
		TotalPaid:      s.TotalPaid,
		ChangeGiven:    s.ChangeGiven,
		Notes:          s.Notes,
		SoldBy:         s.SoldBy,
		SoldAt:         s.SoldAt,
		VoidedBy:       s.VoidedBy,
		VoidedAt:       s.VoidedAt,
		VoidReason:     s.VoidReason,
		Items:          make([]SaleItemResponse, 0, len(s.Items)),
		Payments:       make([]PaymentResponse, 0, len(s.Payments)),
	}
	for _, it := range s.Items {
		line := SaleItemResponse{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			ProductSKU:     it.ProductSKU,
			BatchID:        it.BatchID,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			CostPrice:      it.CostPrice,
			GrossAmount:    it.GrossAmount,
			DiscountAmount: it.DiscountAmount,
			TaxRate:        it.TaxRate,
			TaxAmount:      it.TaxAmount,
			LineTotal:      it.LineTotal,
			Allocations:    make([]AllocationResponse, 0, len(it.Allocations)),
		}
		for _, a := range it.Allocations {
			line.Allocations = append(line.Allocations, AllocationResponse{
				BatchID:     a.BatchID,
				BatchNumber: a.BatchNumber,
				ExpiryDate:  a.ExpiryDate.Format("2006-01-02"),
				Quantity:    a.Quantity,
			})
		}
		out.Items = append(out.Items, line)
	}
	for _, p := range s.Payments {
		out.Payments = append(out.Payments, PaymentResponse{Method: p.Method, Amount: p.Amount, Reference: p.Reference})
	}
	return out
}

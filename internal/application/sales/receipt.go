package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// ReceiptUseCase genera el comprobante PDF de una venta.
type ReceiptUseCase struct {
	sales      repository.SaleRepository
	facilities repository.FacilityRepository
	generator  ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(sales repository.SaleRepository, facilities repository.FacilityRepository, generator ReceiptGenerator) *ReceiptUseCase {
	return &ReceiptUseCase{sales: sales, facilities: facilities, generator: generator}
}

// Render devuelve el PDF y un nombre de archivo sugerido.
func (uc *ReceiptUseCase) Render(ctx context.Context, actor entity.Actor, saleID string) ([]byte, string, error) {
	sale, err := uc.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}
	if sale.OrganizationID != actor.OrganizationID {
		return nil, "", domain.ErrForbidden
	}
	facility, err := uc.facilities.GetByID(ctx, sale.FacilityID)
	if err != nil {
		return nil, "", err
	}
	if facility == nil {
		return nil, "", domain.ErrNotFound
	}
	pdf, err := uc.generator.GenerateReceipt(sale, facility)
	if err != nil {
		return nil, "", fmt.Errorf("generar comprobante: %w", err)
	}
	return pdf, fmt.Sprintf("recibo-%s.pdf", sale.SaleNumber), nil
}

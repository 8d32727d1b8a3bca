package repository

import (
	"context"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// SaleRepository persiste ventas con sus líneas, asignaciones de lote y pagos.
type SaleRepository interface {
	// Create devuelve domain.ErrDuplicateSaleNumber si el número ya existe.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// UpdateStatus persiste estado, estado de pago y datos de anulación.
	UpdateStatus(ctx context.Context, sale *entity.Sale) error
	// NextNumber reserva el siguiente consecutivo para la clave (prefijo+día), sin huecos
	// mientras la transacción confirme.
	NextNumber(ctx context.Context, key string) (int64, error)
	NumberExists(ctx context.Context, saleNumber string) (bool, error)
}

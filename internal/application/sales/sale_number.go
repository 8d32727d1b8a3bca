package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// nextSaleNumber reserva el siguiente consecutivo del día para el prefijo: PREFIJO-AAAAMMDD-000001.
// Salta números ya usados dentro de la misma transacción hasta maxAttempts.
func nextSaleNumber(ctx context.Context, sales repository.SaleRepository, prefix string, day time.Time, maxAttempts int) (string, error) {
	key := fmt.Sprintf("%s-%s", prefix, day.Format("20060102"))
	for i := 0; i < maxAttempts; i++ {
		seq, err := sales.NextNumber(ctx, key)
		if err != nil {
			return "", err
		}
		number := fmt.Sprintf("%s-%06d", key, seq)
		exists, err := sales.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", domain.ErrDuplicateSaleNumber
}

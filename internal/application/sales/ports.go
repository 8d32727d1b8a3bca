package sales

import (
	"context"
	"time"

	appinventory "github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// StockLedger integra ventas con inventario usando los repositorios de la transacción del caller.
// Si algún método falla, el caller debe hacer rollback.
type StockLedger interface {
	LockItem(ctx context.Context, repos repository.TxRepositories, itemID string) (*entity.InventoryItem, error)
	Post(ctx context.Context, repos repository.TxRepositories, p appinventory.Posting) (*entity.StockMovement, error)
	Verify(ctx context.Context, repos repository.TxRepositories, item *entity.InventoryItem) error
	NewPlan(now time.Time) *appinventory.ConsumptionPlan
}

// ReceiptGenerator genera el comprobante PDF de una venta.
type ReceiptGenerator interface {
	GenerateReceipt(sale *entity.Sale, facility *entity.Facility) ([]byte, error)
}

var _ StockLedger = (*appinventory.Ledger)(nil)

package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/application/sales"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/pricing"
	"github.com/jhoicas/farmapos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/farmapos-api/pkg/config"
)

// Requiere una base PostgreSQL desechable en DATABASE_URL; sin ella los tests se omiten.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL no definido; se omiten tests de integración")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

type pgFixture struct {
	engine  *sales.Engine
	batches *appinventory.BatchUseCase
	items   *postgres.InventoryItemRepo
	actor   entity.Actor
	facID   string
	prodID  string
}

func newPGFixture(t *testing.T) *pgFixture {
	pool := openPool(t)
	ctx := context.Background()

	orgID, facID, prodID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO facilities (id, organization_id, name, receipt_prefix) VALUES ($1, $2, 'Sucursal test', $3)`,
		facID, orgID, "T"+facID[:6])
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO products (id, organization_id, sku, name, selling_price, tax_rate, min_stock_level, is_active)
		VALUES ($1, $2, $3, 'Acetaminofén 500mg', 3.50, 0, 2, TRUE)`, prodID, orgID, "SKU-"+prodID[:8])
	require.NoError(t, err)

	log := zerolog.Nop()
	runner := postgres.NewTxRunner(pool, 3, log)
	ledger := appinventory.NewLedger()
	products := postgres.NewProductRepository(pool)
	facilities := postgres.NewFacilityRepository(pool)
	items := postgres.NewInventoryItemRepository(pool)
	return &pgFixture{
		engine: sales.NewEngine(runner, ledger, products, facilities, items, postgres.NewSaleRepository(pool),
			sales.EngineConfig{ReceiptPrefix: "RCP", MaxNumberRetries: 5}, log),
		batches: appinventory.NewBatchUseCase(runner, ledger, products, facilities, items, postgres.NewBatchRepository(pool), log),
		items:   items,
		actor:   entity.Actor{UserID: "cajero-1", OrganizationID: orgID, Role: entity.RoleCashier},
		facID:   facID,
		prodID:  prodID,
	}
}

func TestPostgres_VentaConcurrenteNoSobrevende(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	_, err := f.batches.ReceiveBatch(ctx, appinventory.ReceiveBatchInput{
		Actor: f.actor, FacilityID: f.facID, ProductID: f.prodID, BatchNumber: "L-1",
		Quantity: 5, CostPrice: decimal.NewFromInt(2), ExpiryDate: time.Now().AddDate(1, 0, 0),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := map[string]bool{}
	okCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := f.engine.ProcessSale(ctx, sales.ProcessSaleInput{
				Actor: f.actor, FacilityID: f.facID,
				Cart:     sales.Cart{Lines: []sales.CartLine{{ProductID: f.prodID, Quantity: 1}}},
				Payments: []pricing.Payment{{Method: entity.PaymentMethodCash, Amount: decimal.NewFromInt(5)}},
			})
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			okCount++
			numbers[sale.SaleNumber] = true
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, okCount)
	assert.Len(t, numbers, 5, "cada venta confirmada debe tener número único")

	item, err := f.items.GetByProductAndFacility(ctx, f.prodID, f.facID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, int64(0), item.QuantityOnHand)
	assert.Equal(t, entity.ItemStatusOutOfStock, item.Status)
}

func TestPostgres_AnulacionRestauraLote(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	batch, err := f.batches.ReceiveBatch(ctx, appinventory.ReceiveBatchInput{
		Actor: f.actor, FacilityID: f.facID, ProductID: f.prodID, BatchNumber: "L-2",
		Quantity: 3, CostPrice: decimal.NewFromInt(2), ExpiryDate: time.Now().AddDate(0, 6, 0),
	})
	require.NoError(t, err)

	sale, err := f.engine.ProcessSale(ctx, sales.ProcessSaleInput{
		Actor: f.actor, FacilityID: f.facID,
		Cart:     sales.Cart{Lines: []sales.CartLine{{ProductID: f.prodID, Quantity: 2}}},
		Payments: []pricing.Payment{{Method: entity.PaymentMethodCard, Amount: decimal.NewFromInt(7)}},
	})
	require.NoError(t, err)

	loaded, err := f.engine.GetSale(ctx, f.actor, sale.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	require.Len(t, loaded.Items[0].Allocations, 1)
	assert.Equal(t, batch.ID, loaded.Items[0].Allocations[0].BatchID)
	require.Len(t, loaded.Payments, 1)

	voided, err := f.engine.VoidSale(ctx, sales.VoidSaleInput{Actor: f.actor, SaleID: sale.ID, Reason: "cliente desiste"})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoided, voided.Status)

	item, err := f.items.GetByProductAndFacility(ctx, f.prodID, f.facID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), item.QuantityOnHand)
}

package sales_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/application/sales"
	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

func TestVoidSale_RestoresEveryAllocation(t *testing.T) {
	f := newFixture(t)
	late := f.receive(t, amoxID, "L-LATE", 10, 200)
	soon := f.receive(t, amoxID, "L-SOON", 4, 30)

	sale, err := f.sell([]sales.CartLine{{ProductID: amoxID, Quantity: 6}}, cash("60"))
	require.NoError(t, err)

	voided, err := f.engine.VoidSale(context.Background(), sales.VoidSaleInput{
		Actor:  entity.Actor{UserID: "user-admin", OrganizationID: orgID, Role: entity.RoleAdmin},
		SaleID: sale.ID,
		Reason: "cliente devolvió el producto",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoided, voided.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, voided.PaymentStatus)
	assert.Equal(t, "user-admin", voided.VoidedBy)
	require.NotNil(t, voided.VoidedAt)
	assert.Equal(t, "cliente devolvió el producto", voided.VoidReason)
	money(t, "60", voided.TotalAmount)

	s := f.batch(t, soon.ID)
	assert.Equal(t, int64(4), s.Quantity)
	assert.Equal(t, entity.BatchStatusAvailable, s.Status)
	assert.Equal(t, int64(10), f.batch(t, late.ID).Quantity)
	assert.Equal(t, int64(14), f.item(t, amoxID).QuantityOnHand)

	moves, err := f.store.Movements().ListByItem(context.Background(), soon.InventoryItemID)
	require.NoError(t, err)
	require.Len(t, moves, 6)
	for _, m := range moves[4:] {
		assert.Equal(t, entity.MovementIn, m.Direction)
		assert.Equal(t, entity.ReferenceSaleInvoice, m.ReferenceType)
		assert.Equal(t, sale.ID, m.ReferenceID)
	}

	stored, err := f.engine.GetSale(context.Background(), f.actor, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoided, stored.Status)

	events, _ := f.store.Outbox().ListPending(context.Background(), 10)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EventSaleVoided, events[1].EventType)
}

func TestVoidSale_OnlyCompleted(t *testing.T) {
	f := newFixture(t)
	f.receive(t, amoxID, "A1", 5, 100)
	sale, err := f.sell([]sales.CartLine{{ProductID: amoxID, Quantity: 1}}, cash("10"))
	require.NoError(t, err)

	in := sales.VoidSaleInput{Actor: f.actor, SaleID: sale.ID, Reason: "error de digitación"}
	_, err = f.engine.VoidSale(context.Background(), in)
	require.NoError(t, err)

	_, err = f.engine.VoidSale(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidSaleState)
	assert.Equal(t, int64(5), f.item(t, amoxID).QuantityOnHand, "anular dos veces no debe duplicar stock")
}

func TestVoidSale_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.VoidSale(context.Background(), sales.VoidSaleInput{Actor: f.actor, SaleID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.VoidSale(context.Background(), sales.VoidSaleInput{Actor: f.actor, SaleID: "no-existe", Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVoidSale_MissingBatchCreatesAdjustmentBatch(t *testing.T) {
	f := newFixture(t)
	b := f.receive(t, amoxID, "A1", 5, 100)
	item := f.item(t, amoxID)

	// venta histórica cuya asignación apunta a un lote que ya no existe
	sale := &entity.Sale{
		ID:             "sale-legacy",
		OrganizationID: orgID,
		FacilityID:     facilityID,
		SaleNumber:     "RCP-20250101-000009",
		Status:         entity.SaleStatusCompleted,
		PaymentStatus:  entity.PaymentStatusPaid,
		TotalAmount:    decimal.NewFromInt(30),
		Items: []entity.SaleItem{{
			ID:              "line-1",
			ProductID:       amoxID,
			InventoryItemID: item.ID,
			BatchID:         "batch-gone",
			Quantity:        3,
			Allocations: []entity.BatchAllocation{{
				BatchID:     "batch-gone",
				BatchNumber: "OLD-1",
				ExpiryDate:  fixedNow.AddDate(0, 6, 0),
				CostPrice:   decimal.NewFromInt(4),
				Quantity:    3,
			}},
		}},
	}
	require.NoError(t, f.store.Sales().Create(context.Background(), sale))

	_, err := f.engine.VoidSale(context.Background(), sales.VoidSaleInput{Actor: f.actor, SaleID: sale.ID, Reason: "devolución"})
	require.NoError(t, err)

	batches, err := f.store.Batches().ListByItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	var adj *entity.InventoryBatch
	for _, x := range batches {
		if x.ID != b.ID {
			adj = x
		}
	}
	require.NotNil(t, adj)
	assert.Equal(t, "ADJ-RCP-20250101-000009", adj.BatchNumber)
	assert.Equal(t, int64(3), adj.Quantity)
	assert.Equal(t, entity.BatchStatusAvailable, adj.Status)
	assert.Equal(t, int64(8), f.item(t, amoxID).QuantityOnHand)
}

func TestVoidSale_AfterPositiveCountCorrection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.receive(t, amoxID, "A1", 10, 100)

	sale, err := f.sell([]sales.CartLine{{ProductID: amoxID, Quantity: 3}}, cash("30"))
	require.NoError(t, err)

	// el conteo físico encontró 3 unidades más: el lote vuelve a 10 sin superar su inicial
	_, err = f.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{Actor: f.actor, BatchID: b.ID, Delta: 3, Reason: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.batch(t, b.ID).Quantity)

	voided, err := f.engine.VoidSale(ctx, sales.VoidSaleInput{Actor: f.actor, SaleID: sale.ID, Reason: "devolución"})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusVoided, voided.Status)

	restored := f.batch(t, b.ID)
	assert.Equal(t, int64(13), restored.Quantity)
	assert.Equal(t, int64(13), restored.InitialQuantity)

	item := f.item(t, amoxID)
	assert.False(t, item.OnHold)
	assert.Equal(t, int64(13), item.QuantityOnHand)

	// el ítem sigue vendible
	_, err = f.sell([]sales.CartLine{{ProductID: amoxID, Quantity: 1}}, cash("10"))
	assert.NoError(t, err)
}

package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmapos-api/internal/application/alerts"
	appinventory "github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/infrastructure/memory"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

var actor = entity.Actor{UserID: "user-1", OrganizationID: "org-1", Role: entity.RolePharmacist}

type fixture struct {
	store   *memory.Store
	batches *appinventory.BatchUseCase
	scanner *alerts.Scanner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutFacility(&entity.Facility{ID: "fac-1", OrganizationID: "org-1", Name: "Centro"})
	for _, p := range []*entity.Product{
		{ID: "p-low", OrganizationID: "org-1", Name: "Salbutamol", MinStockLevel: 10, IsActive: true, SellingPrice: decimal.NewFromInt(1)},
		{ID: "p-ok", OrganizationID: "org-1", Name: "Paracetamol", MinStockLevel: 2, IsActive: true, SellingPrice: decimal.NewFromInt(1)},
	} {
		store.PutProduct(p)
	}
	clock := func() time.Time { return fixedNow }
	return &fixture{
		store: store,
		batches: appinventory.NewBatchUseCase(store, appinventory.NewLedger(), store.Products(), store.Facilities(), store.Items(), store.Batches(), zerolog.Nop()).
			WithClock(clock),
		scanner: alerts.NewScanner(store.Facilities(), store.Products(), store.Items(), store.Batches(), store.Alerts(), 90, zerolog.Nop()).
			WithClock(clock),
	}
}

func (f *fixture) receive(t *testing.T, productID, number string, qty int64, expiresInDays int) {
	t.Helper()
	_, err := f.batches.ReceiveBatch(context.Background(), appinventory.ReceiveBatchInput{
		Actor: actor, FacilityID: "fac-1", ProductID: productID, BatchNumber: number,
		Quantity: qty, CostPrice: decimal.NewFromInt(1), ExpiryDate: fixedNow.AddDate(0, 0, expiresInDays),
	})
	require.NoError(t, err)
}

func TestClassifyExpiry(t *testing.T) {
	cases := []struct {
		days          int
		typ, severity string
	}{
		{-1, entity.AlertTypeExpired, entity.AlertSeverityCritical},
		{0, entity.AlertTypeExpiring, entity.AlertSeverityCritical},
		{30, entity.AlertTypeExpiring, entity.AlertSeverityCritical},
		{31, entity.AlertTypeExpiring, entity.AlertSeverityMedium},
		{90, entity.AlertTypeExpiring, entity.AlertSeverityMedium},
		{91, entity.AlertTypeExpiring, entity.AlertSeverityLow},
	}
	for _, tc := range cases {
		typ, sev := alerts.ClassifyExpiry(tc.days)
		assert.Equal(t, tc.typ, typ, "días=%d", tc.days)
		assert.Equal(t, tc.severity, sev, "días=%d", tc.days)
	}
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 0, alerts.DaysUntil(fixedNow, fixedNow.Add(10*time.Hour)))
	assert.Equal(t, 30, alerts.DaysUntil(fixedNow, fixedNow.AddDate(0, 0, 30)))
	assert.Equal(t, -2, alerts.DaysUntil(fixedNow, fixedNow.AddDate(0, 0, -2)))
}

func TestScanLowStock_DeduplicatesActiveAlerts(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "p-low", "S1", 4, 300)
	f.receive(t, "p-ok", "P1", 50, 300)

	created, err := f.scanner.ScanLowStock(context.Background(), actor, "fac-1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "p-low", created[0].ProductID)
	assert.Equal(t, entity.AlertTypeLowStock, created[0].Type)
	assert.Equal(t, entity.AlertSeverityHigh, created[0].Severity)
	assert.Contains(t, created[0].Message, "Salbutamol")

	again, err := f.scanner.ScanLowStock(context.Background(), actor, "fac-1")
	require.NoError(t, err)
	assert.Empty(t, again)

	all, err := f.scanner.ListAlerts(context.Background(), actor, "fac-1", entity.AlertStatusActive)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestScanLowStock_ForeignFacility(t *testing.T) {
	f := newFixture(t)
	_, err := f.scanner.ScanLowStock(context.Background(), entity.Actor{OrganizationID: "org-2"}, "fac-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScanExpiring_SeverityBands(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "p-low", "S-SOON", 4, 20)
	f.receive(t, "p-low", "S-LATER", 4, 80)
	f.receive(t, "p-ok", "P-MID", 10, 60)

	created, err := f.scanner.ScanExpiring(context.Background(), actor, 0)
	require.NoError(t, err)
	require.Len(t, created, 2)

	byProduct := map[string]*entity.InventoryAlert{}
	for _, a := range created {
		byProduct[a.ProductID] = a
	}
	assert.Equal(t, entity.AlertSeverityCritical, byProduct["p-low"].Severity)
	assert.Contains(t, byProduct["p-low"].Message, "S-SOON")
	assert.Equal(t, entity.AlertSeverityMedium, byProduct["p-ok"].Severity)

	again, err := f.scanner.ScanExpiring(context.Background(), actor, 0)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestScanExpiring_ExpiredBatch(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "p-ok", "OLD", 3, -5)

	created, err := f.scanner.ScanExpiring(context.Background(), actor, 30)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, entity.AlertTypeExpired, created[0].Type)
	assert.Equal(t, entity.AlertSeverityCritical, created[0].Severity)
}

func TestScheduler_RunOnce(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "p-low", "S1", 4, 10)

	sched := alerts.NewScheduler(f.scanner, f.batches, f.store.Facilities(), time.Minute, zerolog.Nop())
	sched.RunOnce(context.Background())

	all, err := f.scanner.ListAlerts(context.Background(), actor, "", "")
	require.NoError(t, err)
	types := map[string]bool{}
	for _, a := range all {
		types[a.Type] = true
	}
	assert.True(t, types[entity.AlertTypeLowStock])
	assert.True(t, types[entity.AlertTypeExpiring])
}

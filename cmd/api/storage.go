package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
	"github.com/jhoicas/farmapos-api/internal/infrastructure/catalog"
	"github.com/jhoicas/farmapos-api/internal/infrastructure/memory"
	"github.com/jhoicas/farmapos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/farmapos-api/pkg/config"
)

// storage agrupa los puertos de persistencia según STORAGE (postgres | memory).
type storage struct {
	tx         repository.TxRunner
	products   repository.ProductRepository
	facilities repository.FacilityRepository
	items      repository.InventoryItemRepository
	batches    repository.BatchRepository
	movements  repository.StockMovementRepository
	sales      repository.SaleRepository
	outbox     repository.OutboxRepository
	alerts     repository.AlertRepository
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.App.Storage == "memory" {
		return openMemory(cfg, log)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		tx:         postgres.NewTxRunner(pool, cfg.POS.MaxTxRetries, log),
		products:   postgres.NewProductRepository(pool),
		facilities: postgres.NewFacilityRepository(pool),
		items:      postgres.NewInventoryItemRepository(pool),
		batches:    postgres.NewBatchRepository(pool),
		movements:  postgres.NewStockMovementRepository(pool),
		sales:      postgres.NewSaleRepository(pool),
		outbox:     postgres.NewOutboxRepository(pool),
		alerts:     postgres.NewAlertRepository(pool),
		close:      pool.Close,
	}, nil
}

// openMemory arma el store en memoria y, si hay SEED_CATALOG_CSV, carga una sucursal con su catálogo.
func openMemory(cfg *config.Config, log zerolog.Logger) (*storage, error) {
	store := memory.NewStore()
	if cfg.App.SeedCatalogCSV != "" {
		orgID := cfg.App.SeedOrganizationID
		if orgID == "" {
			orgID = uuid.NewString()
		}
		f, err := os.Open(cfg.App.SeedCatalogCSV)
		if err != nil {
			return nil, fmt.Errorf("abrir catálogo: %w", err)
		}
		defer f.Close()
		products, err := catalog.LoadCSV(f, catalog.Options{OrganizationID: orgID})
		if err != nil {
			return nil, err
		}
		facility := &entity.Facility{ID: uuid.NewString(), OrganizationID: orgID, Name: "Sucursal principal"}
		store.PutFacility(facility)
		for _, p := range products {
			store.PutProduct(p)
		}
		log.Info().
			Str("organization_id", orgID).
			Str("facility_id", facility.ID).
			Int("products", len(products)).
			Msg("catálogo en memoria cargado")
	} else {
		log.Warn().Msg("STORAGE=memory sin SEED_CATALOG_CSV: catálogo vacío")
	}
	return &storage{
		tx:         store,
		products:   store.Products(),
		facilities: store.Facilities(),
		items:      store.Items(),
		batches:    store.Batches(),
		movements:  store.Movements(),
		sales:      store.Sales(),
		outbox:     store.Outbox(),
		alerts:     store.Alerts(),
		close:      func() {},
	}, nil
}

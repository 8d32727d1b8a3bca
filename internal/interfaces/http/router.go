package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmapos-api/internal/application/alerts"
	"github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/application/sales"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine    *sales.Engine
	Receipts  *sales.ReceiptUseCase
	Batches   *inventory.BatchUseCase
	Queries   *inventory.QueryUseCase
	Scanner   *alerts.Scanner
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	supervisors := RequireRole(entity.RoleAdmin, entity.RolePharmacist)

	// Ventas
	saleHandler := NewSaleHandler(deps.Engine, deps.Receipts)
	salesGroup := api.Group("/sales")
	salesGroup.Post("/", saleHandler.ProcessSale)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/void", supervisors, saleHandler.Void)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	// Inventario
	inventoryHandler := NewInventoryHandler(deps.Batches, deps.Queries)
	inv := api.Group("/inventory")
	inv.Post("/batches", supervisors, inventoryHandler.ReceiveBatch)
	inv.Post("/batches/:id/adjust", supervisors, inventoryHandler.AdjustBatch)
	inv.Patch("/batches/:id/status", supervisors, inventoryHandler.SetBatchStatus)
	inv.Get("/summary", inventoryHandler.GetSummary)
	inv.Get("/items/:id/movements", inventoryHandler.ListMovements)
	inv.Post("/items/:id/reconcile", supervisors, inventoryHandler.Reconcile)

	// Alertas
	alertHandler := NewAlertHandler(deps.Scanner)
	alertsGroup := api.Group("/alerts")
	alertsGroup.Get("/", alertHandler.List)
	alertsGroup.Post("/scan/low-stock", alertHandler.ScanLowStock)
	alertsGroup.Post("/scan/expiring", alertHandler.ScanExpiring)
}

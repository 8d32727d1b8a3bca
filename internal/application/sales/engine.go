// Package sales implementa el motor transaccional de ventas: cobro atómico con salida FEFO
// de lotes y anulación con restauración de stock.
package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	appinventory "github.com/jhoicas/farmapos-api/internal/application/inventory"
	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/pricing"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// EngineConfig parámetros del motor.
type EngineConfig struct {
	ReceiptPrefix    string // prefijo de numeración si la sucursal no define uno
	MaxNumberRetries int    // intentos ante colisión de número de venta
}

// Engine procesa, consulta y anula ventas.
type Engine struct {
	txRunner   repository.TxRunner
	ledger     StockLedger
	products   repository.ProductRepository
	facilities repository.FacilityRepository
	items      repository.InventoryItemRepository
	sales      repository.SaleRepository
	cfg        EngineConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewEngine construye el motor.
func NewEngine(
	txRunner repository.TxRunner,
	ledger StockLedger,
	products repository.ProductRepository,
	facilities repository.FacilityRepository,
	items repository.InventoryItemRepository,
	sales repository.SaleRepository,
	cfg EngineConfig,
	log zerolog.Logger,
) *Engine {
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "RCP"
	}
	if cfg.MaxNumberRetries <= 0 {
		cfg.MaxNumberRetries = 5
	}
	return &Engine{
		txRunner:   txRunner,
		ledger:     ledger,
		products:   products,
		facilities: facilities,
		items:      items,
		sales:      sales,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ProcessSaleInput datos de cobro.
type ProcessSaleInput struct {
	Actor      entity.Actor
	FacilityID string
	Cart       Cart
	Payments   []pricing.Payment
}

// resolvedLine es una línea del carrito con su producto y montos calculados.
type resolvedLine struct {
	line    CartLine
	product *entity.Product
	price   pricing.Line
	totals  pricing.LineTotals
}

// ProcessSale valida carrito y pagos, calcula totales y, en una sola transacción, descuenta
// stock FEFO por lote, escribe el libro, crea la venta con su número y el evento de outbox.
// Cualquier error deja inventario y ventas sin cambios.
func (e *Engine) ProcessSale(ctx context.Context, in ProcessSaleInput) (*entity.Sale, error) {
	if err := in.Cart.Validate(); err != nil {
		return nil, err
	}
	if err := pricing.ValidatePayments(in.Payments); err != nil {
		return nil, err
	}
	facility, err := e.facilities.GetByID(ctx, in.FacilityID)
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, in.FacilityID)
	}
	if facility.OrganizationID != in.Actor.OrganizationID {
		return nil, domain.ErrForbidden
	}

	lines, err := e.resolveLines(ctx, in.Actor, in.Cart)
	if err != nil {
		return nil, err
	}
	priced := make([]pricing.Line, len(lines))
	for i := range lines {
		priced[i] = lines[i].price
	}
	totals, err := pricing.ComputeTotals(priced, in.Cart.Discount)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].totals = totals.Lines[i]
	}
	settlement, err := pricing.Settle(totals.Total, in.Payments)
	if err != nil {
		return nil, err
	}

	prefix := e.cfg.ReceiptPrefix
	if facility.ReceiptPrefix != "" {
		prefix = facility.ReceiptPrefix
	}
	now := e.now().UTC()

	var sale *entity.Sale
	for attempt := 1; ; attempt++ {
		sale, err = e.commitSale(ctx, in, facility, lines, totals, settlement, prefix, now)
		if !errors.Is(err, domain.ErrDuplicateSaleNumber) || attempt >= e.cfg.MaxNumberRetries {
			break
		}
		e.log.Warn().Int("attempt", attempt).Str("prefix", prefix).Msg("número de venta duplicado, reintentando")
	}
	if err != nil {
		return nil, appinventory.HoldOnInconsistency(ctx, e.items, e.log, err)
	}
	e.log.Info().
		Str("sale_id", sale.ID).
		Str("sale_number", sale.SaleNumber).
		Str("facility_id", sale.FacilityID).
		Str("total", sale.TotalAmount.String()).
		Str("payment_status", sale.PaymentStatus).
		Msg("venta registrada")
	return sale, nil
}

func (e *Engine) resolveLines(ctx context.Context, actor entity.Actor, cart Cart) ([]resolvedLine, error) {
	out := make([]resolvedLine, 0, len(cart.Lines))
	cache := make(map[string]*entity.Product)
	for _, l := range cart.Lines {
		p, ok := cache[l.ProductID]
		if !ok {
			var err error
			p, err = e.products.GetByID(ctx, l.ProductID)
			if err != nil {
				return nil, err
			}
			cache[l.ProductID] = p
		}
		if p == nil || p.OrganizationID != actor.OrganizationID {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%w: producto %s inactivo", domain.ErrInvalidInput, p.ID)
		}
		if p.RequiresPrescription && cart.SaleType != entity.SaleTypePrescription {
			return nil, fmt.Errorf("%w: producto %s requiere fórmula médica", domain.ErrInvalidInput, p.ID)
		}
		price := p.SellingPrice
		if l.UnitPrice != nil && l.UnitPrice.IsPositive() {
			price = *l.UnitPrice
		}
		out = append(out, resolvedLine{
			line:    l,
			product: p,
			price:   pricing.Line{Quantity: l.Quantity, UnitPrice: price, TaxRate: p.TaxRate, Discount: l.Discount},
		})
	}
	return out, nil
}

func (e *Engine) commitSale(
	ctx context.Context,
	in ProcessSaleInput,
	facility *entity.Facility,
	lines []resolvedLine,
	totals pricing.Totals,
	settlement pricing.Settlement,
	prefix string,
	now time.Time,
) (*entity.Sale, error) {
	var sale *entity.Sale
	err := e.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		// resolver ítems por producto y bloquearlos en orden de ID
		itemOf := make(map[string]string, len(lines))
		requested := make(map[string]int64)
		for _, rl := range lines {
			if _, ok := itemOf[rl.product.ID]; !ok {
				it, err := repos.Items.GetByProductAndFacility(ctx, rl.product.ID, facility.ID)
				if err != nil {
					return err
				}
				if it == nil {
					return &domain.InsufficientStockError{ProductID: rl.product.ID, Requested: rl.line.Quantity, Available: 0}
				}
				itemOf[rl.product.ID] = it.ID
			}
			requested[itemOf[rl.product.ID]] += rl.line.Quantity
		}
		ids := make([]string, 0, len(requested))
		for id := range requested {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		locked := make(map[string]*entity.InventoryItem, len(ids))
		for _, id := range ids {
			it, err := e.ledger.LockItem(ctx, repos, id)
			if err != nil {
				return err
			}
			if !it.IsActive || it.QuantityAvailable < requested[id] {
				avail := it.QuantityAvailable
				if !it.IsActive {
					avail = 0
				}
				return &domain.InsufficientStockError{ProductID: it.ProductID, Requested: requested[id], Available: avail}
			}
			locked[id] = it
		}

		// planificar FEFO para todas las líneas antes de escribir
		plan := e.ledger.NewPlan(now)
		allocations := make([][]entity.BatchAllocation, len(lines))
		for i, rl := range lines {
			item := locked[itemOf[rl.product.ID]]
			allocs, err := plan.Allocate(ctx, repos, item, rl.line.Quantity)
			if err != nil {
				return err
			}
			allocations[i] = allocs
		}

		saleID := uuid.New().String()
		items := make([]entity.SaleItem, len(lines))
		for i, rl := range lines {
			item := locked[itemOf[rl.product.ID]]
			item.MinStockLevel = rl.product.MinStockLevel
			for _, a := range allocations[i] {
				if _, err := e.ledger.Post(ctx, repos, appinventory.Posting{
					Item:          item,
					Batch:         plan.Batch(a.BatchID),
					Direction:     entity.MovementOut,
					Quantity:      a.Quantity,
					ReferenceType: entity.ReferenceSaleInvoice,
					ReferenceID:   saleID,
					PerformedBy:   in.Actor.UserID,
					At:            now,
				}); err != nil {
					return err
				}
			}
			items[i] = entity.SaleItem{
				ID:              uuid.New().String(),
				SaleID:          saleID,
				ProductID:       rl.product.ID,
				ProductName:     rl.product.Name,
				ProductSKU:      rl.product.SKU,
				InventoryItemID: item.ID,
				BatchID:         allocations[i][0].BatchID,
				Quantity:        rl.line.Quantity,
				UnitPrice:       rl.price.UnitPrice,
				CostPrice:       allocatedUnitCost(allocations[i], rl.product.CostPrice),
				GrossAmount:     rl.totals.Gross,
				DiscountAmount:  rl.totals.Discount,
				TaxRate:         rl.price.TaxRate,
				TaxAmount:       rl.totals.Tax,
				LineTotal:       rl.totals.Total,
				Allocations:     allocations[i],
			}
		}
		for _, id := range ids {
			if err := e.ledger.Verify(ctx, repos, locked[id]); err != nil {
				return err
			}
		}

		number, err := nextSaleNumber(ctx, repos.Sales, prefix, now, e.cfg.MaxNumberRetries)
		if err != nil {
			return err
		}
		s := &entity.Sale{
			ID:             saleID,
			OrganizationID: facility.OrganizationID,
			FacilityID:     facility.ID,
			SaleNumber:     number,
			SaleType:       in.Cart.SaleType,
			Status:         entity.SaleStatusCompleted,
			PaymentStatus:  settlement.Status,
			Subtotal:       totals.Subtotal,
			DiscountAmount: totals.Discount,
			TaxAmount:      totals.Tax,
			TotalAmount:    totals.Total,
			TotalPaid:      settlement.TotalPaid,
			ChangeGiven:    settlement.Change,
			Notes:          strings.TrimSpace(in.Cart.Notes),
			SoldBy:         in.Actor.UserID,
			SoldAt:         now,
			Items:          items,
			Payments:       make([]entity.SalePayment, 0, len(in.Payments)),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, p := range in.Payments {
			s.Payments = append(s.Payments, entity.SalePayment{
				ID:        uuid.New().String(),
				SaleID:    saleID,
				Method:    p.Method,
				Amount:    pricing.RoundMoney(p.Amount),
				Reference: p.Reference,
				CreatedAt: now,
			})
		}
		if err := repos.Sales.Create(ctx, s); err != nil {
			return err
		}
		ev, err := newSaleEvent(entity.EventSaleCompleted, s, now)
		if err != nil {
			return err
		}
		if err := repos.Outbox.Insert(ctx, ev); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// GetSale devuelve la venta con líneas, asignaciones y pagos.
func (e *Engine) GetSale(ctx context.Context, actor entity.Actor, saleID string) (*entity.Sale, error) {
	s, err := e.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if s.OrganizationID != actor.OrganizationID {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

// allocatedUnitCost es el costo unitario ponderado por cantidad de los lotes consumidos,
// a 4 decimales. Sin costo en los lotes se usa el de catálogo.
func allocatedUnitCost(allocs []entity.BatchAllocation, fallback decimal.Decimal) decimal.Decimal {
	var qty int64
	total := decimal.Zero
	for _, a := range allocs {
		qty += a.Quantity
		total = total.Add(a.CostPrice.Mul(decimal.NewFromInt(a.Quantity)))
	}
	if qty == 0 || total.IsZero() {
		return fallback
	}
	return total.Div(decimal.NewFromInt(qty)).Round(4)
}

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = productRepo{}
	_ repository.FacilityRepository      = facilityRepo{}
	_ repository.InventoryItemRepository = itemRepo{}
	_ repository.BatchRepository         = batchRepo{}
	_ repository.StockMovementRepository = movementRepo{}
	_ repository.SaleRepository          = saleRepo{}
	_ repository.OutboxRepository        = outboxRepo{}
	_ repository.AlertRepository         = alertRepo{}
)

// ─── catálogo ────────────────────────────────────────────────────────────────

type productRepo struct{ s *Store }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

type facilityRepo struct{ s *Store }

func (r facilityRepo) GetByID(_ context.Context, id string) (*entity.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.facilities[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r facilityRepo) List(_ context.Context) ([]*entity.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Facility, 0, len(r.s.facilities))
	for _, f := range r.s.facilities {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ─── ítems ───────────────────────────────────────────────────────────────────

type itemRepo struct{ t *tx }

func (r itemRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	return r.t.item(id), nil
}

func (r itemRepo) GetByProductAndFacility(_ context.Context, productID, facilityID string) (*entity.InventoryItem, error) {
	for _, it := range r.t.allItems() {
		if it.ProductID == productID && it.FacilityID == facilityID {
			return it, nil
		}
	}
	return nil, nil
}

func (r itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	if err := r.t.lock(ctx, "item:"+id); err != nil {
		return nil, err
	}
	return r.t.item(id), nil
}

func (r itemRepo) CreateIfMissing(ctx context.Context, item *entity.InventoryItem) error {
	// serializa la creación por (producto, sucursal) como lo haría el índice único
	if err := r.t.lock(ctx, "item-key:"+item.ProductID+"|"+item.FacilityID); err != nil {
		return err
	}
	existing, _ := r.GetByProductAndFacility(ctx, item.ProductID, item.FacilityID)
	if existing != nil {
		return nil
	}
	r.t.putItem(item)
	return nil
}

func (r itemRepo) Update(_ context.Context, item *entity.InventoryItem) error {
	if r.t.item(item.ID) == nil {
		return domain.ErrNotFound
	}
	r.t.putItem(item)
	return nil
}

func (r itemRepo) ListByFacility(_ context.Context, facilityID string) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range r.t.allItems() {
		if it.FacilityID == facilityID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r itemRepo) SetHold(_ context.Context, id string, onHold bool, reason string) error {
	it := r.t.item(id)
	if it == nil {
		return domain.ErrNotFound
	}
	it.OnHold = onHold
	it.HoldReason = reason
	if !onHold {
		it.HoldReason = ""
	}
	it.UpdatedAt = time.Now().UTC()
	r.t.putItem(it)
	return nil
}

// ─── lotes ───────────────────────────────────────────────────────────────────

type batchRepo struct{ t *tx }

func (r batchRepo) Create(_ context.Context, b *entity.InventoryBatch) error {
	if r.t.batch(b.ID) != nil {
		return domain.ErrDuplicate
	}
	r.t.putBatch(b)
	return nil
}

func (r batchRepo) Update(_ context.Context, b *entity.InventoryBatch) error {
	if r.t.batch(b.ID) == nil {
		return domain.ErrNotFound
	}
	r.t.putBatch(b)
	return nil
}

func (r batchRepo) GetByID(_ context.Context, id string) (*entity.InventoryBatch, error) {
	return r.t.batch(id), nil
}

func (r batchRepo) ListByItem(_ context.Context, itemID string) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	for _, b := range r.t.allBatches() {
		if b.InventoryItemID == itemID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r batchRepo) ListExpiring(_ context.Context, f repository.ExpiringFilter) ([]*entity.InventoryBatch, error) {
	facilityOf := make(map[string]string)
	if f.FacilityID != "" {
		for _, it := range r.t.allItems() {
			facilityOf[it.ID] = it.FacilityID
		}
	}
	var out []*entity.InventoryBatch
	for _, b := range r.t.allBatches() {
		if b.Quantity <= 0 || b.Status == entity.BatchStatusExhausted || b.ExpiryDate.After(f.Before) {
			continue
		}
		if f.OrganizationID != "" && b.OrganizationID != f.OrganizationID {
			continue
		}
		if f.FacilityID != "" && facilityOf[b.InventoryItemID] != f.FacilityID {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}

// ─── movimientos ─────────────────────────────────────────────────────────────

type movementRepo struct{ t *tx }

func (r movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	cp := *m
	if r.t.auto {
		r.t.s.mu.Lock()
		r.t.s.movementSeq++
		cp.Sequence = r.t.s.movementSeq
		r.t.s.movements = append(r.t.s.movements, &cp)
		r.t.s.mu.Unlock()
		m.Sequence = cp.Sequence
		return nil
	}
	r.t.movements = append(r.t.movements, &cp)
	return nil
}

func (r movementRepo) ListByItem(_ context.Context, itemID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	r.t.s.mu.RLock()
	for _, m := range r.t.s.movements {
		if m.InventoryItemID == itemID {
			cp := *m
			out = append(out, &cp)
		}
	}
	r.t.s.mu.RUnlock()
	for _, m := range r.t.movements {
		if m.InventoryItemID == itemID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ─── ventas ──────────────────────────────────────────────────────────────────

type saleRepo struct{ t *tx }

func (r saleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if exists, _ := r.NumberExists(ctx, sale.SaleNumber); exists {
		return domain.ErrDuplicateSaleNumber
	}
	cp := cloneSale(sale)
	if r.t.auto {
		r.t.s.mu.Lock()
		defer r.t.s.mu.Unlock()
		if _, ok := r.t.s.saleNumbers[sale.SaleNumber]; ok {
			return domain.ErrDuplicateSaleNumber
		}
		r.t.s.sales[sale.ID] = cp
		r.t.s.saleNumbers[sale.SaleNumber] = sale.ID
		return nil
	}
	r.t.sales[sale.ID] = cp
	r.t.newSales[sale.ID] = true
	return nil
}

func (r saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return r.t.sale(id), nil
}

func (r saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	if err := r.t.lock(ctx, "sale:"+id); err != nil {
		return nil, err
	}
	return r.t.sale(id), nil
}

func (r saleRepo) UpdateStatus(_ context.Context, sale *entity.Sale) error {
	cur := r.t.sale(sale.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	cur.Status = sale.Status
	cur.PaymentStatus = sale.PaymentStatus
	cur.VoidedBy = sale.VoidedBy
	cur.VoidedAt = sale.VoidedAt
	cur.VoidReason = sale.VoidReason
	cur.UpdatedAt = sale.UpdatedAt
	if r.t.auto {
		r.t.s.mu.Lock()
		r.t.s.sales[sale.ID] = cur
		r.t.s.mu.Unlock()
		return nil
	}
	r.t.sales[sale.ID] = cur
	return nil
}

func (r saleRepo) NextNumber(_ context.Context, key string) (int64, error) {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	r.t.s.counters[key]++
	return r.t.s.counters[key], nil
}

func (r saleRepo) NumberExists(_ context.Context, saleNumber string) (bool, error) {
	for _, s := range r.t.sales {
		if s.SaleNumber == saleNumber {
			return true, nil
		}
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	_, ok := r.t.s.saleNumbers[saleNumber]
	return ok, nil
}

// ─── outbox ──────────────────────────────────────────────────────────────────

type outboxRepo struct{ t *tx }

func (r outboxRepo) Insert(_ context.Context, e *entity.OutboxEvent) error {
	cp := cloneEvent(e)
	if r.t.auto {
		r.t.s.mu.Lock()
		r.t.s.outbox = append(r.t.s.outbox, cp)
		r.t.s.mu.Unlock()
		return nil
	}
	r.t.outbox = append(r.t.outbox, cp)
	return nil
}

func (r outboxRepo) ListPending(_ context.Context, limit int) ([]*entity.OutboxEvent, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	var out []*entity.OutboxEvent
	for _, e := range r.t.s.outbox {
		if e.Status != entity.OutboxStatusPending {
			continue
		}
		out = append(out, cloneEvent(e))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r outboxRepo) MarkSent(_ context.Context, id string) error {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	for _, e := range r.t.s.outbox {
		if e.ID == id {
			now := time.Now().UTC()
			e.Status = entity.OutboxStatusSent
			e.SentAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r outboxRepo) MarkFailed(_ context.Context, id string) error {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	for _, e := range r.t.s.outbox {
		if e.ID == id {
			e.Attempts++
			return nil
		}
	}
	return domain.ErrNotFound
}

// ─── alertas ─────────────────────────────────────────────────────────────────

type alertRepo struct{ s *Store }

func (r alertRepo) FindActive(_ context.Context, itemID, alertType string) (*entity.InventoryAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.alerts {
		if a.InventoryItemID == itemID && a.Type == alertType && a.Status == entity.AlertStatusActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r alertRepo) Create(_ context.Context, a *entity.InventoryAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.Status == entity.AlertStatusActive {
		for _, cur := range r.s.alerts {
			if cur.InventoryItemID == a.InventoryItemID && cur.Type == a.Type && cur.Status == entity.AlertStatusActive {
				return domain.ErrDuplicate
			}
		}
	}
	cp := *a
	r.s.alerts[a.ID] = &cp
	return nil
}

func (r alertRepo) List(_ context.Context, f repository.AlertFilter) ([]*entity.InventoryAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.InventoryAlert
	for _, a := range r.s.alerts {
		if f.OrganizationID != "" && a.OrganizationID != f.OrganizationID {
			continue
		}
		if f.FacilityID != "" && a.FacilityID != f.FacilityID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Package memory implementa los puertos de repositorio en memoria con transacciones:
// bloqueo por ítem, escrituras en un overlay y aplicación atómica al confirmar.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// Store guarda todo el estado del motor en memoria.
type Store struct {
	mu          sync.RWMutex
	products    map[string]*entity.Product
	facilities  map[string]*entity.Facility
	items       map[string]*entity.InventoryItem
	batches     map[string]*entity.InventoryBatch
	movements   []*entity.StockMovement
	movementSeq int64
	sales       map[string]*entity.Sale
	saleNumbers map[string]string
	counters    map[string]int64
	alerts      map[string]*entity.InventoryAlert
	outbox      []*entity.OutboxEvent

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:    make(map[string]*entity.Product),
		facilities:  make(map[string]*entity.Facility),
		items:       make(map[string]*entity.InventoryItem),
		batches:     make(map[string]*entity.InventoryBatch),
		sales:       make(map[string]*entity.Sale),
		saleNumbers: make(map[string]string),
		counters:    make(map[string]int64),
		alerts:      make(map[string]*entity.InventoryAlert),
		locks:       make(map[string]chan struct{}),
	}
}

var _ repository.TxRunner = (*Store)(nil)

// Run ejecuta fn en una transacción en memoria. Las escrituras son invisibles para
// otros lectores hasta el commit, que se aplica de una sola vez.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	t := s.begin(false)
	defer t.release()
	if err := fn(t.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

// PutProduct registra un producto de catálogo.
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

// PutFacility registra una sucursal.
func (s *Store) PutFacility(f *entity.Facility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.facilities[f.ID] = &cp
}

// Repositorios fuera de transacción (autocommit).

func (s *Store) Products() repository.ProductRepository        { return productRepo{s: s} }
func (s *Store) Facilities() repository.FacilityRepository     { return facilityRepo{s: s} }
func (s *Store) Items() repository.InventoryItemRepository     { return itemRepo{t: s.begin(true)} }
func (s *Store) Batches() repository.BatchRepository           { return batchRepo{t: s.begin(true)} }
func (s *Store) Movements() repository.StockMovementRepository { return movementRepo{t: s.begin(true)} }
func (s *Store) Sales() repository.SaleRepository              { return saleRepo{t: s.begin(true)} }
func (s *Store) Outbox() repository.OutboxRepository           { return outboxRepo{t: s.begin(true)} }
func (s *Store) Alerts() repository.AlertRepository            { return alertRepo{s: s} }

func (s *Store) lockFor(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// tx es una transacción en memoria. Con auto=true no hay overlay ni bloqueos:
// cada escritura se aplica directamente.
type tx struct {
	s    *Store
	auto bool

	held   []chan struct{}
	heldBy map[string]bool

	items     map[string]*entity.InventoryItem
	batches   map[string]*entity.InventoryBatch
	movements []*entity.StockMovement
	sales     map[string]*entity.Sale
	newSales  map[string]bool
	outbox    []*entity.OutboxEvent
}

func (s *Store) begin(auto bool) *tx {
	return &tx{
		s:        s,
		auto:     auto,
		heldBy:   make(map[string]bool),
		items:    make(map[string]*entity.InventoryItem),
		batches:  make(map[string]*entity.InventoryBatch),
		sales:    make(map[string]*entity.Sale),
		newSales: make(map[string]bool),
	}
}

func (t *tx) repos() repository.TxRepositories {
	return repository.TxRepositories{
		Items:     itemRepo{t: t},
		Batches:   batchRepo{t: t},
		Movements: movementRepo{t: t},
		Sales:     saleRepo{t: t},
		Outbox:    outboxRepo{t: t},
	}
}

func (t *tx) lock(ctx context.Context, key string) error {
	if t.auto || t.heldBy[key] {
		return nil
	}
	ch := t.s.lockFor(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	t.heldBy[key] = true
	t.held = append(t.held, ch)
	return nil
}

func (t *tx) release() {
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.newSales {
		sale := t.sales[id]
		if owner, ok := s.saleNumbers[sale.SaleNumber]; ok && owner != id {
			return domain.ErrDuplicateSaleNumber
		}
	}
	for id, it := range t.items {
		s.items[id] = it
	}
	for id, b := range t.batches {
		s.batches[id] = b
	}
	for _, m := range t.movements {
		s.movementSeq++
		m.Sequence = s.movementSeq
		s.movements = append(s.movements, m)
	}
	for id, sale := range t.sales {
		s.sales[id] = sale
		s.saleNumbers[sale.SaleNumber] = id
	}
	s.outbox = append(s.outbox, t.outbox...)
	return nil
}

// Lecturas combinadas store + overlay. Devuelven copias.

func (t *tx) item(id string) *entity.InventoryItem {
	if it, ok := t.items[id]; ok {
		return cloneItem(it)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if it, ok := t.s.items[id]; ok {
		return cloneItem(it)
	}
	return nil
}

func (t *tx) allItems() []*entity.InventoryItem {
	t.s.mu.RLock()
	merged := make(map[string]*entity.InventoryItem, len(t.s.items))
	for id, it := range t.s.items {
		merged[id] = it
	}
	t.s.mu.RUnlock()
	for id, it := range t.items {
		merged[id] = it
	}
	out := make([]*entity.InventoryItem, 0, len(merged))
	for _, it := range merged {
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *tx) putItem(it *entity.InventoryItem) {
	cp := cloneItem(it)
	if t.auto {
		t.s.mu.Lock()
		t.s.items[it.ID] = cp
		t.s.mu.Unlock()
		return
	}
	t.items[it.ID] = cp
}

func (t *tx) batch(id string) *entity.InventoryBatch {
	if b, ok := t.batches[id]; ok {
		return cloneBatch(b)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if b, ok := t.s.batches[id]; ok {
		return cloneBatch(b)
	}
	return nil
}

func (t *tx) allBatches() []*entity.InventoryBatch {
	t.s.mu.RLock()
	merged := make(map[string]*entity.InventoryBatch, len(t.s.batches))
	for id, b := range t.s.batches {
		merged[id] = b
	}
	t.s.mu.RUnlock()
	for id, b := range t.batches {
		merged[id] = b
	}
	out := make([]*entity.InventoryBatch, 0, len(merged))
	for _, b := range merged {
		out = append(out, cloneBatch(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedDate.Equal(out[j].ReceivedDate) {
			return out[i].ReceivedDate.Before(out[j].ReceivedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *tx) putBatch(b *entity.InventoryBatch) {
	cp := cloneBatch(b)
	if t.auto {
		t.s.mu.Lock()
		t.s.batches[b.ID] = cp
		t.s.mu.Unlock()
		return
	}
	t.batches[b.ID] = cp
}

func (t *tx) sale(id string) *entity.Sale {
	if s, ok := t.sales[id]; ok {
		return cloneSale(s)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if s, ok := t.s.sales[id]; ok {
		return cloneSale(s)
	}
	return nil
}

func cloneItem(it *entity.InventoryItem) *entity.InventoryItem {
	cp := *it
	return &cp
}

func cloneBatch(b *entity.InventoryBatch) *entity.InventoryBatch {
	cp := *b
	return &cp
}

func cloneSale(s *entity.Sale) *entity.Sale {
	cp := *s
	if s.VoidedAt != nil {
		v := *s.VoidedAt
		cp.VoidedAt = &v
	}
	cp.Items = make([]entity.SaleItem, len(s.Items))
	for i, it := range s.Items {
		cp.Items[i] = it
		cp.Items[i].Allocations = append([]entity.BatchAllocation(nil), it.Allocations...)
	}
	cp.Payments = append([]entity.SalePayment(nil), s.Payments...)
	return &cp
}

func cloneEvent(e *entity.OutboxEvent) *entity.OutboxEvent {
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	if e.SentAt != nil {
		v := *e.SentAt
		cp.SentAt = &v
	}
	return &cp
}

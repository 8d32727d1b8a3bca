// Package alerts genera alertas de stock bajo y vencimiento, sin duplicar alertas activas.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// Bandas de severidad para vencimiento.
const (
	criticalWithinDays = 30
	mediumWithinDays   = 90
)

// Scanner recorre ítems y lotes y crea alertas nuevas.
type Scanner struct {
	facilities    repository.FacilityRepository
	products      repository.ProductRepository
	items         repository.InventoryItemRepository
	batches       repository.BatchRepository
	alerts        repository.AlertRepository
	thresholdDays int
	log           zerolog.Logger
	now           func() time.Time
}

// NewScanner construye el escáner. thresholdDays es la ventana por defecto de vencimiento.
func NewScanner(
	facilities repository.FacilityRepository,
	products repository.ProductRepository,
	items repository.InventoryItemRepository,
	batches repository.BatchRepository,
	alerts repository.AlertRepository,
	thresholdDays int,
	log zerolog.Logger,
) *Scanner {
	if thresholdDays <= 0 {
		thresholdDays = mediumWithinDays
	}
	return &Scanner{
		facilities:    facilities,
		products:      products,
		items:         items,
		batches:       batches,
		alerts:        alerts,
		thresholdDays: thresholdDays,
		log:           log,
		now:           time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// ScanLowStock crea una alerta LOW_STOCK (HIGH) por cada ítem activo de la sucursal con
// on-hand <= mínimo que no tenga ya una activa. Devuelve solo las creadas.
func (s *Scanner) ScanLowStock(ctx context.Context, actor entity.Actor, facilityID string) ([]*entity.InventoryAlert, error) {
	facility, err := s.ownedFacility(ctx, actor, facilityID)
	if err != nil {
		return nil, err
	}
	return s.scanLowStock(ctx, facility)
}

func (s *Scanner) scanLowStock(ctx context.Context, facility *entity.Facility) ([]*entity.InventoryAlert, error) {
	items, err := s.items.ListByFacility(ctx, facility.ID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var created []*entity.InventoryAlert
	for _, it := range items {
		if !it.IsActive || it.QuantityOnHand > it.MinStockLevel {
			continue
		}
		a := &entity.InventoryAlert{
			ID:              uuid.New().String(),
			OrganizationID:  it.OrganizationID,
			FacilityID:      it.FacilityID,
			InventoryItemID: it.ID,
			ProductID:       it.ProductID,
			Type:            entity.AlertTypeLowStock,
			Severity:        entity.AlertSeverityHigh,
			Status:          entity.AlertStatusActive,
			Message: fmt.Sprintf("%s: stock %d por debajo o igual al mínimo %d",
				s.productName(ctx, it.ProductID), it.QuantityOnHand, it.MinStockLevel),
			CreatedAt: now,
			UpdatedAt: now,
		}
		ok, err := s.create(ctx, a)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, a)
		}
	}
	return created, nil
}

// ScanExpiring revisa los lotes con existencias de la organización que vencen dentro de
// thresholdDays (0 usa el valor configurado). Por ítem se toma el lote que vence primero:
// vencido → EXPIRED/CRITICAL, <=30 días → CRITICAL, <=90 → MEDIUM, resto → LOW.
func (s *Scanner) ScanExpiring(ctx context.Context, actor entity.Actor, thresholdDays int) ([]*entity.InventoryAlert, error) {
	if thresholdDays < 0 {
		return nil, domain.ErrInvalidInput
	}
	if thresholdDays == 0 {
		thresholdDays = s.thresholdDays
	}
	return s.scanExpiring(ctx, actor.OrganizationID, thresholdDays)
}

func (s *Scanner) scanExpiring(ctx context.Context, organizationID string, thresholdDays int) ([]*entity.InventoryAlert, error) {
	now := s.now().UTC()
	batches, err := s.batches.ListExpiring(ctx, repository.ExpiringFilter{
		OrganizationID: organizationID,
		Before:         now.AddDate(0, 0, thresholdDays),
	})
	if err != nil {
		return nil, err
	}
	// lote más próximo a vencer por ítem
	first := make(map[string]*entity.InventoryBatch)
	order := make([]string, 0)
	for _, b := range batches {
		cur, ok := first[b.InventoryItemID]
		if !ok {
			order = append(order, b.InventoryItemID)
		}
		if !ok || b.ExpiryDate.Before(cur.ExpiryDate) {
			first[b.InventoryItemID] = b
		}
	}

	var created []*entity.InventoryAlert
	for _, itemID := range order {
		b := first[itemID]
		item, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return created, err
		}
		if item == nil || !item.IsActive {
			continue
		}
		days := DaysUntil(now, b.ExpiryDate)
		alertType, severity := ClassifyExpiry(days)
		msg := fmt.Sprintf("%s: lote %s vence en %d días (%s)", s.productName(ctx, b.ProductID), b.BatchNumber, days, b.ExpiryDate.Format("2006-01-02"))
		if alertType == entity.AlertTypeExpired {
			msg = fmt.Sprintf("%s: lote %s vencido desde %s", s.productName(ctx, b.ProductID), b.BatchNumber, b.ExpiryDate.Format("2006-01-02"))
		}
		a := &entity.InventoryAlert{
			ID:              uuid.New().String(),
			OrganizationID:  item.OrganizationID,
			FacilityID:      item.FacilityID,
			InventoryItemID: item.ID,
			ProductID:       item.ProductID,
			BatchID:         b.ID,
			Type:            alertType,
			Severity:        severity,
			Status:          entity.AlertStatusActive,
			Message:         msg,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		ok, err := s.create(ctx, a)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, a)
		}
	}
	return created, nil
}

// ListAlerts lista alertas de la organización, opcionalmente por sucursal y estado.
func (s *Scanner) ListAlerts(ctx context.Context, actor entity.Actor, facilityID, status string) ([]*entity.InventoryAlert, error) {
	return s.alerts.List(ctx, repository.AlertFilter{
		OrganizationID: actor.OrganizationID,
		FacilityID:     facilityID,
		Status:         status,
	})
}

// DaysUntil cuenta días calendario entre now y expiry (negativo si ya venció).
func DaysUntil(now, expiry time.Time) int {
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = expiry.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// ClassifyExpiry asigna tipo y severidad según los días restantes.
func ClassifyExpiry(days int) (alertType, severity string) {
	switch {
	case days < 0:
		return entity.AlertTypeExpired, entity.AlertSeverityCritical
	case days <= criticalWithinDays:
		return entity.AlertTypeExpiring, entity.AlertSeverityCritical
	case days <= mediumWithinDays:
		return entity.AlertTypeExpiring, entity.AlertSeverityMedium
	default:
		return entity.AlertTypeExpiring, entity.AlertSeverityLow
	}
}

// create inserta la alerta si no hay otra ACTIVE para (ítem, tipo).
func (s *Scanner) create(ctx context.Context, a *entity.InventoryAlert) (bool, error) {
	existing, err := s.alerts.FindActive(ctx, a.InventoryItemID, a.Type)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Scanner) ownedFacility(ctx context.Context, actor entity.Actor, facilityID string) (*entity.Facility, error) {
	if facilityID == "" {
		return nil, domain.ErrInvalidInput
	}
	f, err := s.facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	if f.OrganizationID != actor.OrganizationID {
		return nil, domain.ErrForbidden
	}
	return f, nil
}

func (s *Scanner) productName(ctx context.Context, productID string) string {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil || p == nil {
		return productID
	}
	return p.Name
}

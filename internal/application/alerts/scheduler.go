package alerts

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// BatchExpirer marca como vencidos los lotes pasados de fecha de una sucursal.
type BatchExpirer interface {
	ExpireBatches(ctx context.Context, facilityID string) (int, error)
}

// Scheduler ejecuta periódicamente el vencimiento de lotes y los escaneos de alertas
// para todas las sucursales.
type Scheduler struct {
	scanner    *Scanner
	expirer    BatchExpirer
	facilities repository.FacilityRepository
	interval   time.Duration
	log        zerolog.Logger
}

// NewScheduler construye el planificador.
func NewScheduler(scanner *Scanner, expirer BatchExpirer, facilities repository.FacilityRepository, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{scanner: scanner, expirer: expirer, facilities: facilities, interval: interval, log: log}
}

// Start corre un ciclo al arrancar y luego cada intervalo hasta que ctx se cancele.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("planificador de alertas iniciado")
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("planificador de alertas detenido")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta un ciclo completo. Los errores por sucursal se registran y no detienen el ciclo.
func (s *Scheduler) RunOnce(ctx context.Context) {
	facilities, err := s.facilities.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("no se pudieron listar sucursales")
		return
	}
	orgs := make(map[string]bool)
	var expired, created int
	for _, f := range facilities {
		if ctx.Err() != nil {
			return
		}
		n, err := s.expirer.ExpireBatches(ctx, f.ID)
		if err != nil {
			s.log.Error().Err(err).Str("facility_id", f.ID).Msg("fallo al vencer lotes")
		}
		expired += n
		low, err := s.scanner.scanLowStock(ctx, f)
		if err != nil {
			s.log.Error().Err(err).Str("facility_id", f.ID).Msg("fallo escaneo de stock bajo")
		}
		created += len(low)
		orgs[f.OrganizationID] = true
	}
	for org := range orgs {
		exp, err := s.scanner.scanExpiring(ctx, org, s.scanner.thresholdDays)
		if err != nil {
			s.log.Error().Err(err).Str("organization_id", org).Msg("fallo escaneo de vencimientos")
		}
		created += len(exp)
	}
	s.log.Info().Int("facilities", len(facilities)).Int("batches_expired", expired).Int("alerts_created", created).Msg("ciclo de alertas completado")
}

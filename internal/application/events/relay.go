// Package events publica los eventos del outbox transaccional.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

// Publisher envía un evento al broker. key agrupa eventos del mismo agregado.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload []byte) error
}

// Relay lee eventos pendientes del outbox y los publica; los marca SENT solo tras publicar.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
	log       zerolog.Logger
}

// NewRelay construye el relay.
func NewRelay(outbox repository.OutboxRepository, publisher Publisher, interval time.Duration, log zerolog.Logger) *Relay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Relay{outbox: outbox, publisher: publisher, interval: interval, batchSize: 100, log: log}
}

// Start procesa el outbox cada intervalo hasta que ctx se cancele.
func (r *Relay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("relay de outbox iniciado")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("relay de outbox detenido")
			return
		case <-ticker.C:
			if _, err := r.ProcessOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("fallo al procesar outbox")
			}
		}
	}
}

// ProcessOnce publica un lote de eventos pendientes y devuelve cuántos se enviaron.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	pending, err := r.outbox.ListPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, ev := range pending {
		if err := r.publish(ctx, ev); err != nil {
			r.log.Error().Err(err).Str("event_id", ev.ID).Str("event_type", ev.EventType).Msg("fallo al publicar evento")
			if markErr := r.outbox.MarkFailed(ctx, ev.ID); markErr != nil {
				r.log.Error().Err(markErr).Str("event_id", ev.ID).Msg("no se pudo registrar el intento fallido")
			}
			continue
		}
		if err := r.outbox.MarkSent(ctx, ev.ID); err != nil {
			r.log.Error().Err(err).Str("event_id", ev.ID).Msg("no se pudo marcar evento como enviado")
			continue
		}
		sent++
	}
	return sent, nil
}

func (r *Relay) publish(ctx context.Context, ev *entity.OutboxEvent) error {
	if err := r.publisher.Publish(ctx, ev.AggregateID, ev.EventType, ev.Payload); err != nil {
		return err
	}
	r.log.Debug().Str("event_id", ev.ID).Str("event_type", ev.EventType).Msg("evento publicado")
	return nil
}

// LogPublisher solo registra los eventos; se usa cuando no hay brokers configurados.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher construye el publicador de log.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish registra el evento a nivel info.
func (p *LogPublisher) Publish(_ context.Context, key, eventType string, payload []byte) error {
	p.log.Info().Str("key", key).Str("event_type", eventType).RawJSON("payload", payload).Msg("evento de dominio")
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/farmapos-api/internal/domain"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo tabla outbox_events: se escribe en la tx de la venta y la vacía el relay.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Insert guarda el evento en estado PENDING.
func (r *OutboxRepo) Insert(ctx context.Context, e *entity.OutboxEvent) error {
	status := e.Status
	if status == "" {
		status = entity.OutboxStatusPending
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, []byte(e.Payload), status, e.Attempts, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// ListPending devuelve hasta limit eventos pendientes en orden de creación.
func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status, attempts, created_at, sent_at
		FROM outbox_events WHERE status = 'PENDING'
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox: %w", err)
	}
	defer rows.Close()
	var out []*entity.OutboxEvent
	for rows.Next() {
		var e entity.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload,
			&e.Status, &e.Attempts, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Payload = payload
		out = append(out, &e)
	}
	return out, rows.Err()
}

// MarkSent marca el evento como publicado.
func (r *OutboxRepo) MarkSent(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE outbox_events SET status = 'SENT', sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkFailed incrementa el contador de intentos; el evento sigue PENDING.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE outbox_events SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

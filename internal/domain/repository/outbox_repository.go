package repository

import (
	"context"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

// OutboxRepository guarda eventos en la transacción de negocio y permite al relay publicarlos.
type OutboxRepository interface {
	Insert(ctx context.Context, e *entity.OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

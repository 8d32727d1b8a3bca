package repository

import "context"

// TxRepositories agrupa los repositorios ligados a una misma transacción.
type TxRepositories struct {
	Items     InventoryItemRepository
	Batches   BatchRepository
	Movements StockMovementRepository
	Sales     SaleRepository
	Outbox    OutboxRepository
}

// TxRunner ejecuta fn en una transacción: commit si fn devuelve nil, rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepositories) error) error
}

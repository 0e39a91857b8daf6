package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}

// NewRepositories arma el conjunto de repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepositories(q Querier) inventory.Repositories {
	return inventory.Repositories{
		Stock:        NewStockRepository(q),
		Movements:    NewMovementRepository(q),
		Products:     NewProductRepository(q),
		Locations:    NewLocationRepository(q),
		Receipts:     NewReceiptRepository(q),
		Deliveries:   NewDeliveryRepository(q),
		Stocktakings: NewStocktakingRepository(q),
		Disposals:    NewDisposalRepository(q),
		Incidents:    NewIncidentRepository(q),
	}
}

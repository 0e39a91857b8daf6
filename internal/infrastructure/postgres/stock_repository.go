package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, location_id, batch, quantity, status, version, last_movement_at, updated_at`

func scanStock(row pgx.Row) (*entity.StockRow, error) {
	var s entity.StockRow
	err := row.Scan(
		&s.Key.ProductID, &s.Key.LocationID, &s.Key.Batch,
		&s.Quantity, &s.Status, &s.Version, &s.LastMovementAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene la fila de stock de la clave; fila vacía si no existe.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockRow, error) {
	query := `SELECT ` + stockColumns + `
		FROM stock_rows WHERE product_id = $1 AND location_id = $2 AND batch = $3`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.ProductID, key.LocationID, key.Batch))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStockRow(key), nil
		}
		return nil, wrap("get stock", err)
	}
	return s, nil
}

// GetForUpdate crea la fila si no existe (INSERT ... ON CONFLICT DO NOTHING) y la bloquea
// con SELECT FOR UPDATE, de modo que dos transacciones sobre una clave nueva también se serializan.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockRow, error) {
	insert := `
		INSERT INTO stock_rows (product_id, location_id, batch)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, location_id, batch) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, key.ProductID, key.LocationID, key.Batch); err != nil {
		return nil, wrap("ensure stock row", err)
	}
	query := `SELECT ` + stockColumns + `
		FROM stock_rows WHERE product_id = $1 AND location_id = $2 AND batch = $3
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.ProductID, key.LocationID, key.Batch))
	if err != nil {
		return nil, wrap("get stock for update", err)
	}
	return s, nil
}

// Save actualiza la fila si la versión coincide (compare-and-swap) e incrementa Version.
func (r *StockRepo) Save(ctx context.Context, row *entity.StockRow) error {
	query := `
		INSERT INTO stock_rows (product_id, location_id, batch, quantity, status, version, last_movement_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
		ON CONFLICT (product_id, location_id, batch) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			status = EXCLUDED.status,
			version = stock_rows.version + 1,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at
		WHERE stock_rows.version = $8
		RETURNING version`
	var version int64
	err := r.q.QueryRow(ctx, query,
		row.Key.ProductID, row.Key.LocationID, row.Key.Batch,
		row.Quantity, row.Status, row.LastMovementAt, row.UpdatedAt, row.Version,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: stock %s versión %d", domain.ErrConcurrencyConflict, row.Key, row.Version)
		}
		return wrap("save stock", err)
	}
	row.Version = version
	return nil
}

// ListByProduct lista las filas de un producto en todas las ubicaciones y lotes. Omite las
// filas en versión 0 que GetForUpdate crea para bloquear una clave nueva.
func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockRow, error) {
	query := `SELECT ` + stockColumns + `
		FROM stock_rows WHERE product_id = $1 AND version > 0
		ORDER BY location_id, batch`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, wrap("list stock", err)
	}
	defer rows.Close()
	var list []*entity.StockRow
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

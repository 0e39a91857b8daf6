package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar filas de stock por clave.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve la fila de la clave; si no existe devuelve una fila vacía (cantidad 0).
	Get(ctx context.Context, key entity.StockKey) (*entity.StockRow, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockRow, error)
	// Save persiste la fila si su Version coincide con la almacenada (compare-and-swap)
	// e incrementa Version. Devuelve domain.ErrConcurrencyConflict si no coincide.
	Save(ctx context.Context, row *entity.StockRow) error
	// ListByProduct lista todas las filas de un producto (todas las ubicaciones y lotes).
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockRow, error)
}

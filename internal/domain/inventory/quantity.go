package inventory

import (
	"math"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ApplyDelta calcula la nueva cantidad de una fila. Un delta negativo que deja la fila
// bajo cero devuelve *domain.InsufficientStockError y la fila no cambia; un delta que
// desborda int64 devuelve domain.ErrInvalidInput.
func ApplyDelta(row *entity.StockRow, delta int64) (int64, error) {
	if delta == math.MinInt64 || (delta > 0 && row.Quantity > math.MaxInt64-delta) {
		return row.Quantity, domain.Invalid("delta %d desborda la cantidad de %s", delta, row.Key)
	}
	next := row.Quantity + delta
	if delta < 0 && next < 0 {
		return row.Quantity, &domain.InsufficientStockError{
			ProductID:  row.Key.ProductID,
			LocationID: row.Key.LocationID,
			Batch:      row.Key.Batch,
			Requested:  -delta,
			Available:  row.Quantity,
		}
	}
	return next, nil
}

// Replay reconstruye la cantidad de una clave sumando los deltas en orden.
// Devuelve error si algún prefijo de la secuencia queda negativo.
func Replay(key entity.StockKey, movements []entity.Movement) (int64, error) {
	row := entity.NewStockRow(key)
	for _, m := range movements {
		q, err := ApplyDelta(row, m.Delta)
		if err != nil {
			return row.Quantity, err
		}
		row.Quantity = q
	}
	return row.Quantity, nil
}

// AcceptedQuantity cantidad aceptada de una línea de recepción:
// cantidad recibida menos faltante y daño marcados en la propia línea.
func AcceptedQuantity(line entity.DocumentLine) (int64, error) {
	if line.Quantity <= 0 {
		return 0, domain.Invalid("cantidad de línea debe ser positiva (producto %s)", line.ProductID)
	}
	if line.ShortageQuantity < 0 || line.DamagedQuantity < 0 {
		return 0, domain.Invalid("faltante y daño no pueden ser negativos (producto %s)", line.ProductID)
	}
	accepted := line.Quantity - line.ShortageQuantity - line.DamagedQuantity
	if accepted < 0 {
		return 0, domain.Invalid("faltante + daño supera la cantidad de la línea (producto %s)", line.ProductID)
	}
	return accepted, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const defaultHistoryBatch = 200

// StockLedger es el único dueño de las filas de stock y del registro de movimientos.
// Cada movimiento se agrega y proyecta sobre su fila en la misma transacción,
// bloqueando la fila (SELECT FOR UPDATE) para serializar mutaciones por clave.
type StockLedger struct {
	txRunner     TxRunner
	reads        Repositories
	paging       dto.Pagination
	historyBatch int
	opts         Options
}

// NewStockLedger construye el libro. reads son los repositorios fuera de transacción.
func NewStockLedger(txRunner TxRunner, reads Repositories, paging dto.Pagination, historyBatch int, opts ...Option) *StockLedger {
	if historyBatch <= 0 {
		historyBatch = defaultHistoryBatch
	}
	return &StockLedger{
		txRunner:     txRunner,
		reads:        reads,
		paging:       paging,
		historyBatch: historyBatch,
		opts:         BuildOptions(opts),
	}
}

// Drift diferencia entre la cantidad almacenada y la reconstruida desde movimientos.
type Drift struct {
	Key      entity.StockKey
	Stored   int64
	Replayed int64
}

// HistoryQuery filtro del historial. Batch nil = todos los lotes; From/To nil = sin límite.
type HistoryQuery struct {
	ProductID  string
	LocationID string
	Batch      *string
	From       *time.Time
	To         *time.Time
}

func (q HistoryQuery) filter() (repository.MovementFilter, error) {
	if q.ProductID == "" {
		return repository.MovementFilter{}, domain.Invalid("product_id es obligatorio")
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return repository.MovementFilter{}, domain.Invalid("rango de fechas inválido")
	}
	f := repository.MovementFilter{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		From:       q.From,
		To:         q.To,
	}
	if q.Batch != nil {
		f.Batch = *q.Batch
		f.FilterBatch = true
	}
	return f, nil
}

// ApplyMovement valida y aplica un movimiento suelto en su propia transacción. No tiene
// ruta HTTP: los documentos escriben el libro con ApplyInTx.
// Un delta negativo que deja la fila bajo cero devuelve *domain.InsufficientStockError
// y ni la fila ni el registro cambian.
func (l *StockLedger) ApplyMovement(ctx context.Context, m entity.Movement) (*entity.Movement, error) {
	if err := validateMovement(&m); err != nil {
		return nil, l.opts.Fail("apply_movement", err)
	}
	if err := l.checkRefs(ctx, l.reads, m.ProductID, m.LocationID); err != nil {
		return nil, l.opts.Fail("apply_movement", err)
	}
	err := l.txRunner.Run(ctx, func(repos Repositories) error {
		_, err := l.ApplyInTx(ctx, repos, &m)
		return err
	})
	if err != nil {
		return nil, l.opts.Fail("apply_movement", err)
	}
	return &m, nil
}

// ApplyInTx aplica el movimiento con los repositorios de una transacción ya abierta.
// Completa ID si viene vacío. OccurredAt lo asigna siempre el libro con la fila bloqueada
// (ver occurredAt); el valor que traiga m se descarta. No verifica producto ni ubicación:
// lo hace quien llama.
func (l *StockLedger) ApplyInTx(ctx context.Context, repos Repositories, m *entity.Movement) (*entity.StockRow, error) {
	if err := validateMovement(m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	row, err := repos.Stock.GetForUpdate(ctx, m.Key())
	if err != nil {
		return nil, fmt.Errorf("bloquear stock: %w", err)
	}
	qty, err := inventory.ApplyDelta(row, m.Delta)
	if err != nil {
		return nil, err
	}
	m.OccurredAt = l.occurredAt(row)
	row.Quantity = qty
	at := m.OccurredAt
	row.LastMovementAt = &at
	row.UpdatedAt = l.opts.Clock()
	if err := repos.Stock.Save(ctx, row); err != nil {
		return nil, fmt.Errorf("guardar stock: %w", err)
	}
	if err := repos.Movements.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("registrar movimiento: %w", err)
	}

	l.opts.Metrics.MovementApplied(m.Reason, m.Delta)
	l.opts.Logger.Debug().
		Str("movement_id", m.ID).
		Str("product_id", m.ProductID).
		Str("location_id", m.LocationID).
		Int64("delta", m.Delta).
		Str("reason", string(m.Reason)).
		Int64("quantity", row.Quantity).
		Msg("movimiento aplicado")
	return row, nil
}

// occurredAt marca de tiempo del siguiente movimiento de row, en microsegundos (la
// resolución de timestamptz) y estrictamente posterior al último movimiento de la fila.
// Así el orden (OccurredAt, ID) del historial coincide con el orden de aplicación.
func (l *StockLedger) occurredAt(row *entity.StockRow) time.Time {
	at := l.opts.Clock().UTC().Truncate(time.Microsecond)
	if last := row.LastMovementAt; last != nil && !at.After(*last) {
		at = last.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return at
}

// LockKeys bloquea las filas de stock en orden de clave para evitar deadlocks entre documentos.
func LockKeys(ctx context.Context, repos Repositories, keys []entity.StockKey) error {
	for _, k := range SortedKeys(keys) {
		if _, err := repos.Stock.GetForUpdate(ctx, k); err != nil {
			return fmt.Errorf("bloquear stock %s: %w", k, err)
		}
	}
	return nil
}

// CurrentQuantity cantidad actual de la clave; 0 si nunca tuvo movimientos.
func (l *StockLedger) CurrentQuantity(ctx context.Context, key entity.StockKey) (int64, error) {
	row, err := l.Row(ctx, key)
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// Row devuelve la fila de stock de la clave (vacía si no existe).
func (l *StockLedger) Row(ctx context.Context, key entity.StockKey) (*entity.StockRow, error) {
	if key.ProductID == "" || key.LocationID == "" {
		return nil, domain.Invalid("product_id y location_id son obligatorios")
	}
	row, err := l.reads.Stock.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("consultar stock: %w", err)
	}
	return row, nil
}

// OnHand suma las filas de un producto en todas las ubicaciones y lotes.
func (l *StockLedger) OnHand(ctx context.Context, productID string) (int64, []*entity.StockRow, error) {
	if productID == "" {
		return 0, nil, domain.Invalid("product_id es obligatorio")
	}
	rows, err := l.reads.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return 0, nil, fmt.Errorf("listar stock: %w", err)
	}
	var total int64
	for _, r := range rows {
		total += r.Quantity
	}
	return total, rows, nil
}

// SetStatus cambia el estado de una fila existente (p. ej. cuarentena o vencido).
func (l *StockLedger) SetStatus(ctx context.Context, key entity.StockKey, status entity.StockStatus) (*entity.StockRow, error) {
	if !status.IsValid() {
		return nil, l.opts.Fail("set_status", domain.Invalid("estado de stock %q no reconocido", status))
	}
	var out *entity.StockRow
	err := l.txRunner.Run(ctx, func(repos Repositories) error {
		row, err := repos.Stock.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("bloquear stock: %w", err)
		}
		if row.Version == 0 {
			return domain.NotFound("stock", key.String())
		}
		row.Status = status
		row.UpdatedAt = l.opts.Clock()
		if err := repos.Stock.Save(ctx, row); err != nil {
			return fmt.Errorf("guardar stock: %w", err)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, l.opts.Fail("set_status", err)
	}
	return out, nil
}

// History devuelve una secuencia perezosa y reiniciable de movimientos ordenados por
// OccurredAt y luego por ID. Cada recorrido vuelve a consultar por páginas de conjunto de claves.
func (l *StockLedger) History(ctx context.Context, q HistoryQuery) iter.Seq2[entity.Movement, error] {
	return func(yield func(entity.Movement, error) bool) {
		filter, err := q.filter()
		if err != nil {
			yield(entity.Movement{}, err)
			return
		}
		var cursor *repository.MovementCursor
		for {
			page, err := l.reads.Movements.ListAfter(ctx, filter, cursor, l.historyBatch)
			if err != nil {
				yield(entity.Movement{}, fmt.Errorf("historial: %w", err))
				return
			}
			for _, m := range page {
				if !yield(*m, nil) {
					return
				}
			}
			if len(page) < l.historyBatch {
				return
			}
			last := page[len(page)-1]
			cursor = &repository.MovementCursor{OccurredAt: last.OccurredAt, ID: last.ID}
		}
	}
}

// HistoryPage versión paginada por offset del historial, para la API.
func (l *StockLedger) HistoryPage(ctx context.Context, q HistoryQuery, page dto.PageRequest) ([]*entity.Movement, dto.PageResponse, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, dto.PageResponse{}, err
	}
	page = page.Normalize(l.paging)
	list, total, err := l.reads.Movements.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, dto.PageResponse{}, fmt.Errorf("historial: %w", err)
	}
	return list, dto.PageResponse{Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Replay reconstruye la cantidad de una clave a partir de su historial completo.
func (l *StockLedger) Replay(ctx context.Context, key entity.StockKey) (int64, error) {
	batch := key.Batch
	q := HistoryQuery{ProductID: key.ProductID, LocationID: key.LocationID, Batch: &batch}
	var movements []entity.Movement
	for m, err := range l.History(ctx, q) {
		if err != nil {
			return 0, err
		}
		movements = append(movements, m)
	}
	return inventory.Replay(key, movements)
}

// Verify compara cada fila del producto con su replay y devuelve las que difieren.
func (l *StockLedger) Verify(ctx context.Context, productID string) ([]Drift, error) {
	_, rows, err := l.OnHand(ctx, productID)
	if err != nil {
		return nil, err
	}
	var drifts []Drift
	for _, r := range rows {
		replayed, err := l.Replay(ctx, r.Key)
		if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
			return nil, err
		}
		if replayed != r.Quantity || err != nil {
			drifts = append(drifts, Drift{Key: r.Key, Stored: r.Quantity, Replayed: replayed})
		}
	}
	if len(drifts) > 0 {
		l.opts.Logger.Warn().Str("product_id", productID).Int("drifts", len(drifts)).Msg("stock desalineado con movimientos")
	}
	return drifts, nil
}

func (l *StockLedger) checkRefs(ctx context.Context, repos Repositories, productID, locationID string) error {
	p, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("consultar producto: %w", err)
	}
	if p == nil {
		return domain.NotFound("producto", productID)
	}
	loc, err := repos.Locations.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("consultar ubicación: %w", err)
	}
	if loc == nil {
		return domain.NotFound("ubicación", locationID)
	}
	return nil
}

func validateMovement(m *entity.Movement) error {
	switch {
	case m.ProductID == "" || m.LocationID == "":
		return domain.Invalid("product_id y location_id son obligatorios")
	case m.Delta == 0:
		return domain.Invalid("delta no puede ser cero")
	case !m.Reason.IsValid():
		return domain.Invalid("motivo %q no reconocido", m.Reason)
	case m.SourceDocumentID == "":
		return domain.Invalid("source_document_id es obligatorio")
	}
	return nil
}

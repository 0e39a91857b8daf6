package inventory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// MovementProcessor convierte recepciones y despachos en borrador en movimientos del libro.
// Contabilizar es todo o nada: si una línea falla, ningún movimiento queda registrado.
type MovementProcessor struct {
	txRunner TxRunner
	reads    Repositories
	ledger   *StockLedger
	locker   DocumentLocker
	opts     Options
}

// NewMovementProcessor construye el procesador. locker nil equivale a NoopLocker.
func NewMovementProcessor(txRunner TxRunner, reads Repositories, ledger *StockLedger, locker DocumentLocker, opts ...Option) *MovementProcessor {
	if locker == nil {
		locker = NoopLocker{}
	}
	return &MovementProcessor{
		txRunner: txRunner,
		reads:    reads,
		ledger:   ledger,
		locker:   locker,
		opts:     BuildOptions(opts),
	}
}

// CreateReceiptInput datos para registrar una recepción en borrador.
type CreateReceiptInput struct {
	SupplierID   string
	LocationID   string
	Date         time.Time
	Lines        []entity.DocumentLine
	HasShortage  bool
	ShortageNote string
	DamageNote   string
}

// CreateDeliveryInput datos para registrar un despacho en borrador.
type CreateDeliveryInput struct {
	CustomerID string
	LocationID string
	Date       time.Time
	Lines      []entity.DocumentLine
}

// SortedKeys devuelve las claves sin duplicados, en el orden de bloqueo.
func SortedKeys(keys []entity.StockKey) []entity.StockKey {
	out := slices.Clone(keys)
	slices.SortFunc(out, entity.StockKey.Compare)
	return slices.Compact(out)
}

// CreateReceipt valida y guarda una recepción en estado DRAFT.
func (p *MovementProcessor) CreateReceipt(ctx context.Context, in CreateReceiptInput) (*entity.Receipt, error) {
	if in.SupplierID == "" || in.LocationID == "" {
		return nil, p.opts.Fail("create_receipt", domain.Invalid("supplier_id y location_id son obligatorios"))
	}
	if err := validateLines(in.Lines, true); err != nil {
		return nil, p.opts.Fail("create_receipt", err)
	}
	now := p.opts.Clock()
	r := &entity.Receipt{
		ID:           uuid.New().String(),
		SupplierID:   in.SupplierID,
		LocationID:   in.LocationID,
		Date:         dateOr(in.Date, now),
		Status:       entity.DocumentStatusDraft,
		Lines:        slices.Clone(in.Lines),
		HasShortage:  in.HasShortage,
		ShortageNote: in.ShortageNote,
		DamageNote:   in.DamageNote,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := p.txRunner.Run(ctx, func(repos Repositories) error {
		return repos.Receipts.Create(ctx, r)
	})
	if err != nil {
		return nil, p.opts.Fail("create_receipt", fmt.Errorf("crear recepción: %w", err))
	}
	return r, nil
}

// CreateDelivery valida y guarda un despacho en estado DRAFT.
func (p *MovementProcessor) CreateDelivery(ctx context.Context, in CreateDeliveryInput) (*entity.Delivery, error) {
	if in.CustomerID == "" || in.LocationID == "" {
		return nil, p.opts.Fail("create_delivery", domain.Invalid("customer_id y location_id son obligatorios"))
	}
	if err := validateLines(in.Lines, false); err != nil {
		return nil, p.opts.Fail("create_delivery", err)
	}
	now := p.opts.Clock()
	d := &entity.Delivery{
		ID:         uuid.New().String(),
		CustomerID: in.CustomerID,
		LocationID: in.LocationID,
		Date:       dateOr(in.Date, now),
		Status:     entity.DocumentStatusDraft,
		Lines:      slices.Clone(in.Lines),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := p.txRunner.Run(ctx, func(repos Repositories) error {
		return repos.Deliveries.Create(ctx, d)
	})
	if err != nil {
		return nil, p.opts.Fail("create_delivery", fmt.Errorf("crear despacho: %w", err))
	}
	return d, nil
}

// PostReceipt contabiliza una recepción DRAFT: un movimiento RECEIPT por línea con la
// cantidad aceptada (las líneas sin cantidad aceptada no generan movimiento) y pasa a POSTED.
func (p *MovementProcessor) PostReceipt(ctx context.Context, caller entity.Caller, id string) (*entity.Receipt, error) {
	release, err := p.locker.Lock(ctx, "receipt:"+id)
	if err != nil {
		return nil, p.opts.Fail("post_receipt", err)
	}
	defer release()

	var posted *entity.Receipt
	err = p.txRunner.Run(ctx, func(repos Repositories) error {
		r, err := repos.Receipts.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("bloquear recepción: %w", err)
		}
		if r == nil {
			return domain.NotFound("recepción", id)
		}
		if r.Status != entity.DocumentStatusDraft {
			return domain.InvalidState("recepción %s en estado %s, se requiere DRAFT", id, r.Status)
		}
		if err := p.checkDocumentRefs(ctx, repos, r.LocationID, r.Lines); err != nil {
			return err
		}

		// Solo se bloquean las filas que reciben unidades: una línea sin cantidad aceptada
		// no crea fila de stock.
		accepted := make([]int64, len(r.Lines))
		keys := make([]entity.StockKey, 0, len(r.Lines))
		for i, line := range r.Lines {
			q, err := inventory.AcceptedQuantity(line)
			if err != nil {
				return err
			}
			accepted[i] = q
			if q > 0 {
				keys = append(keys, lineKey(r.LocationID, line))
			}
		}
		if err := LockKeys(ctx, repos, keys); err != nil {
			return err
		}

		now := p.opts.Clock()
		for i, line := range r.Lines {
			if accepted[i] == 0 {
				continue
			}
			m := &entity.Movement{
				ProductID:        line.ProductID,
				LocationID:       r.LocationID,
				Batch:            line.Batch,
				Delta:            accepted[i],
				Reason:           entity.MovementReasonReceipt,
				SourceDocumentID: r.ID,
				CreatedBy:        caller.UserID,
			}
			if _, err := p.ledger.ApplyInTx(ctx, repos, m); err != nil {
				return err
			}
		}

		r.Status = entity.DocumentStatusPosted
		r.PostedAt = &now
		r.UpdatedAt = now
		if err := repos.Receipts.Update(ctx, r); err != nil {
			return fmt.Errorf("actualizar recepción: %w", err)
		}
		posted = r
		return nil
	})
	if err != nil {
		return nil, p.opts.Fail("post_receipt", err)
	}
	p.opts.Logger.Info().Str("receipt_id", id).Int("lines", len(posted.Lines)).Msg("recepción contabilizada")
	return posted, nil
}

// PostDelivery contabiliza un despacho DRAFT: un movimiento DELIVERY negativo por línea.
// Si el total pedido de alguna clave supera su existencia devuelve
// *domain.InsufficientStockError con ese total, y el despacho sigue en DRAFT sin movimientos.
func (p *MovementProcessor) PostDelivery(ctx context.Context, caller entity.Caller, id string) (*entity.Delivery, error) {
	release, err := p.locker.Lock(ctx, "delivery:"+id)
	if err != nil {
		return nil, p.opts.Fail("post_delivery", err)
	}
	defer release()

	var posted *entity.Delivery
	err = p.txRunner.Run(ctx, func(repos Repositories) error {
		d, err := repos.Deliveries.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("bloquear despacho: %w", err)
		}
		if d == nil {
			return domain.NotFound("despacho", id)
		}
		if d.Status != entity.DocumentStatusDraft {
			return domain.InvalidState("despacho %s en estado %s, se requiere DRAFT", id, d.Status)
		}
		if err := p.checkDocumentRefs(ctx, repos, d.LocationID, d.Lines); err != nil {
			return err
		}

		// Las líneas repetidas de una misma clave se validan por su total.
		requested := make(map[entity.StockKey]int64, len(d.Lines))
		keys := make([]entity.StockKey, 0, len(d.Lines))
		for _, line := range d.Lines {
			key := lineKey(d.LocationID, line)
			requested[key] += line.Quantity
			keys = append(keys, key)
		}
		for _, key := range SortedKeys(keys) {
			row, err := repos.Stock.GetForUpdate(ctx, key)
			if err != nil {
				return fmt.Errorf("bloquear stock %s: %w", key, err)
			}
			if row.Status != entity.StockStatusAvailable {
				return domain.InvalidState("stock %s en estado %s no se puede despachar", key, row.Status)
			}
			if row.Quantity < requested[key] {
				return &domain.InsufficientStockError{
					ProductID:  key.ProductID,
					LocationID: key.LocationID,
					Batch:      key.Batch,
					Requested:  requested[key],
					Available:  row.Quantity,
				}
			}
		}

		now := p.opts.Clock()
		for _, line := range d.Lines {
			m := &entity.Movement{
				ProductID:        line.ProductID,
				LocationID:       d.LocationID,
				Batch:            line.Batch,
				Delta:            -line.Quantity,
				Reason:           entity.MovementReasonDelivery,
				SourceDocumentID: d.ID,
				CreatedBy:        caller.UserID,
			}
			if _, err := p.ledger.ApplyInTx(ctx, repos, m); err != nil {
				return err
			}
		}

		d.Status = entity.DocumentStatusPosted
		d.PostedAt = &now
		d.UpdatedAt = now
		if err := repos.Deliveries.Update(ctx, d); err != nil {
			return fmt.Errorf("actualizar despacho: %w", err)
		}
		posted = d
		return nil
	})
	if err != nil {
		return nil, p.opts.Fail("post_delivery", err)
	}
	p.opts.Logger.Info().Str("delivery_id", id).Int("lines", len(posted.Lines)).Msg("despacho contabilizado")
	return posted, nil
}

// CloseReceipt pasa una recepción POSTED a CLOSED.
func (p *MovementProcessor) CloseReceipt(ctx context.Context, id string) (*entity.Receipt, error) {
	var out *entity.Receipt
	err := p.txRunner.Run(ctx, func(repos Repositories) error {
		r, err := repos.Receipts.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("bloquear recepción: %w", err)
		}
		if r == nil {
			return domain.NotFound("recepción", id)
		}
		if r.Status != entity.DocumentStatusPosted {
			return domain.InvalidState("recepción %s en estado %s, se requiere POSTED", id, r.Status)
		}
		r.Status = entity.DocumentStatusClosed
		r.UpdatedAt = p.opts.Clock()
		out = r
		return repos.Receipts.Update(ctx, r)
	})
	if err != nil {
		return nil, p.opts.Fail("close_receipt", err)
	}
	return out, nil
}

// CloseDelivery pasa un despacho POSTED a CLOSED.
func (p *MovementProcessor) CloseDelivery(ctx context.Context, id string) (*entity.Delivery, error) {
	var out *entity.Delivery
	err := p.txRunner.Run(ctx, func(repos Repositories) error {
		d, err := repos.Deliveries.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("bloquear despacho: %w", err)
		}
		if d == nil {
			return domain.NotFound("despacho", id)
		}
		if d.Status != entity.DocumentStatusPosted {
			return domain.InvalidState("despacho %s en estado %s, se requiere POSTED", id, d.Status)
		}
		d.Status = entity.DocumentStatusClosed
		d.UpdatedAt = p.opts.Clock()
		out = d
		return repos.Deliveries.Update(ctx, d)
	})
	if err != nil {
		return nil, p.opts.Fail("close_delivery", err)
	}
	return out, nil
}

// GetReceipt devuelve la recepción o domain.ErrNotFound.
func (p *MovementProcessor) GetReceipt(ctx context.Context, id string) (*entity.Receipt, error) {
	r, err := p.reads.Receipts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar recepción: %w", err)
	}
	if r == nil {
		return nil, domain.NotFound("recepción", id)
	}
	return r, nil
}

// GetDelivery devuelve el despacho o domain.ErrNotFound.
func (p *MovementProcessor) GetDelivery(ctx context.Context, id string) (*entity.Delivery, error) {
	d, err := p.reads.Deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar despacho: %w", err)
	}
	if d == nil {
		return nil, domain.NotFound("despacho", id)
	}
	return d, nil
}

func (p *MovementProcessor) checkDocumentRefs(ctx context.Context, repos Repositories, locationID string, lines []entity.DocumentLine) error {
	loc, err := repos.Locations.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("consultar ubicación: %w", err)
	}
	if loc == nil {
		return domain.NotFound("ubicación", locationID)
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		prod, err := repos.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			return fmt.Errorf("consultar producto: %w", err)
		}
		if prod == nil {
			return domain.NotFound("producto", line.ProductID)
		}
	}
	return nil
}

func validateLines(lines []entity.DocumentLine, receipt bool) error {
	if len(lines) == 0 {
		return domain.Invalid("el documento debe tener al menos una línea")
	}
	for _, line := range lines {
		if line.ProductID == "" {
			return domain.Invalid("product_id es obligatorio en cada línea")
		}
		if line.Price.IsNegative() {
			return domain.Invalid("precio negativo (producto %s)", line.ProductID)
		}
		if receipt {
			if _, err := inventory.AcceptedQuantity(line); err != nil {
				return err
			}
			continue
		}
		if line.Quantity <= 0 {
			return domain.Invalid("cantidad de línea debe ser positiva (producto %s)", line.ProductID)
		}
		if line.ShortageQuantity != 0 || line.DamagedQuantity != 0 {
			return domain.Invalid("faltante y daño solo aplican a recepciones (producto %s)", line.ProductID)
		}
	}
	return nil
}

func lineKey(locationID string, line entity.DocumentLine) entity.StockKey {
	return entity.StockKey{ProductID: line.ProductID, LocationID: locationID, Batch: line.Batch}
}

func dateOr(d, fallback time.Time) time.Time {
	if d.IsZero() {
		return fallback
	}
	return d
}

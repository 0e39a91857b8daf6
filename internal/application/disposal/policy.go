package disposal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// DefaultHighValueThreshold umbral por defecto para aprobación de junta.
var DefaultHighValueThreshold = decimal.NewFromInt(50000)

// Config parámetros explícitos de la política.
type Config struct {
	HighValueThreshold decimal.Decimal
}

// Policy decide si una orden de baja o devolución llega al libro y con qué aprobación.
// Valor >= umbral: PENDING_BOARD_APPROVAL (solo admin). Valor menor: PENDING (admin o manager).
type Policy struct {
	txRunner inventory.TxRunner
	reads    inventory.Repositories
	ledger   *inventory.StockLedger
	cfg      Config
	opts     inventory.Options
}

// NewPolicy construye la política. Un umbral no positivo usa DefaultHighValueThreshold.
func NewPolicy(txRunner inventory.TxRunner, reads inventory.Repositories, ledger *inventory.StockLedger, cfg Config, opts ...inventory.Option) *Policy {
	if !cfg.HighValueThreshold.IsPositive() {
		cfg.HighValueThreshold = DefaultHighValueThreshold
	}
	return &Policy{
		txRunner: txRunner,
		reads:    reads,
		ledger:   ledger,
		cfg:      cfg,
		opts:     inventory.BuildOptions(opts),
	}
}

// ItemInput línea solicitada; el costo unitario sale del catálogo.
type ItemInput struct {
	ProductID string
	Batch     string
	Quantity  int64
}

// SubmitInput datos de una nueva orden.
type SubmitInput struct {
	Kind       entity.DisposalKind
	Reason     string
	LocationID string
	Date       time.Time
	Items      []ItemInput
	Attachment string
}

// Threshold devuelve el umbral configurado.
func (p *Policy) Threshold() decimal.Decimal { return p.cfg.HighValueThreshold }

// Classify clasifica un valor contra el umbral configurado.
func (p *Policy) Classify(value decimal.Decimal) entity.ApprovalClass {
	return domaininv.Classify(value, p.cfg.HighValueThreshold)
}

// Submit valoriza la orden con el costo del catálogo y la deja en el estado pendiente
// que corresponde a su clasificación.
func (p *Policy) Submit(ctx context.Context, caller entity.Caller, in SubmitInput) (*entity.DisposalOrder, error) {
	if err := validateSubmit(in); err != nil {
		return nil, p.opts.Fail("submit_disposal", err)
	}
	loc, err := p.reads.Locations.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, p.opts.Fail("submit_disposal", fmt.Errorf("consultar ubicación: %w", err))
	}
	if loc == nil {
		return nil, p.opts.Fail("submit_disposal", domain.NotFound("ubicación", in.LocationID))
	}

	items := make([]entity.DisposalItem, 0, len(in.Items))
	for _, it := range in.Items {
		prod, err := p.reads.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, p.opts.Fail("submit_disposal", fmt.Errorf("consultar producto: %w", err))
		}
		if prod == nil {
			return nil, p.opts.Fail("submit_disposal", domain.NotFound("producto", it.ProductID))
		}
		items = append(items, entity.DisposalItem{
			ProductID: it.ProductID,
			Batch:     it.Batch,
			Quantity:  it.Quantity,
			UnitCost:  prod.UnitCost,
		})
	}

	now := p.opts.Clock()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	value := domaininv.DisposalValue(items)
	class := p.Classify(value)
	d := &entity.DisposalOrder{
		ID:             uuid.New().String(),
		Kind:           in.Kind,
		Reason:         in.Reason,
		LocationID:     in.LocationID,
		Date:           date,
		Items:          items,
		Value:          value,
		Classification: class,
		Status:         domaininv.PendingStatusFor(class),
		Attachment:     in.Attachment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = p.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		return repos.Disposals.Create(ctx, d)
	})
	if err != nil {
		return nil, p.opts.Fail("submit_disposal", fmt.Errorf("crear orden: %w", err))
	}
	p.opts.Logger.Info().
		Str("disposal_id", d.ID).
		Str("submitted_by", caller.UserID).
		Str("value", d.Value.String()).
		Str("classification", string(class)).
		Msg("orden de baja registrada")
	return d, nil
}

// Approve exige el estado pendiente que corresponde a la clasificación de la orden
// y un rol con capacidad para esa clasificación.
func (p *Policy) Approve(ctx context.Context, caller entity.Caller, id, council string) (*entity.DisposalOrder, error) {
	out, err := p.decide(ctx, caller, id, func(d *entity.DisposalOrder, class entity.ApprovalClass) error {
		if d.Status != domaininv.PendingStatusFor(class) {
			return domain.InvalidState("orden %s en estado %s, se requiere %s", d.ID, d.Status, domaininv.PendingStatusFor(class))
		}
		d.Status = entity.DisposalStatusApproved
		d.DecidedBy = caller.UserID
		if council != "" {
			d.Council = council
		}
		return nil
	})
	return out, p.opts.Fail("approve_disposal", err)
}

// Reject rechaza una orden en cualquiera de los estados pendientes.
func (p *Policy) Reject(ctx context.Context, caller entity.Caller, id string) (*entity.DisposalOrder, error) {
	out, err := p.decide(ctx, caller, id, func(d *entity.DisposalOrder, _ entity.ApprovalClass) error {
		if d.Status != entity.DisposalStatusPending && d.Status != entity.DisposalStatusPendingBoardApproval {
			return domain.InvalidState("orden %s en estado %s no se puede rechazar", d.ID, d.Status)
		}
		d.Status = entity.DisposalStatusRejected
		d.DecidedBy = caller.UserID
		return nil
	})
	return out, p.opts.Fail("reject_disposal", err)
}

// Apply APPROVED -> APPLIED con un movimiento negativo por línea (DISPOSAL o RETURN).
// Si alguna línea falla la orden sigue APPROVED y puede reintentarse.
func (p *Policy) Apply(ctx context.Context, caller entity.Caller, id string) (*entity.DisposalOrder, error) {
	var out *entity.DisposalOrder
	err := p.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		d, err := lockOrder(ctx, repos, id)
		if err != nil {
			return err
		}
		if d.Status != entity.DisposalStatusApproved {
			return domain.InvalidState("orden %s en estado %s, se requiere APPROVED", d.ID, d.Status)
		}
		if !caller.CanApprove(p.classOf(d)) {
			return fmt.Errorf("%w: rol %s no puede aplicar esta orden", domain.ErrForbidden, caller.Role)
		}

		keys := make([]entity.StockKey, 0, len(d.Items))
		for _, it := range d.Items {
			keys = append(keys, entity.StockKey{ProductID: it.ProductID, LocationID: d.LocationID, Batch: it.Batch})
		}
		if err := inventory.LockKeys(ctx, repos, keys); err != nil {
			return err
		}
		now := p.opts.Clock()
		for _, it := range d.Items {
			m := &entity.Movement{
				ProductID:        it.ProductID,
				LocationID:       d.LocationID,
				Batch:            it.Batch,
				Delta:            -it.Quantity,
				Reason:           d.MovementReason(),
				SourceDocumentID: d.ID,
				CreatedBy:        caller.UserID,
			}
			if _, err := p.ledger.ApplyInTx(ctx, repos, m); err != nil {
				return err
			}
		}
		d.Status = entity.DisposalStatusApplied
		d.UpdatedAt = now
		if err := repos.Disposals.Update(ctx, d); err != nil {
			return fmt.Errorf("actualizar orden: %w", err)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, p.opts.Fail("apply_disposal", err)
	}
	p.opts.Logger.Info().Str("disposal_id", id).Int("items", len(out.Items)).Msg("orden de baja aplicada")
	return out, nil
}

// Get devuelve la orden o domain.ErrNotFound.
func (p *Policy) Get(ctx context.Context, id string) (*entity.DisposalOrder, error) {
	d, err := p.reads.Disposals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar orden: %w", err)
	}
	if d == nil {
		return nil, domain.NotFound("orden", id)
	}
	return d, nil
}

// decide bloquea la orden, valida estado (fn) y luego rol, y persiste.
func (p *Policy) decide(ctx context.Context, caller entity.Caller, id string, fn func(*entity.DisposalOrder, entity.ApprovalClass) error) (*entity.DisposalOrder, error) {
	var out *entity.DisposalOrder
	err := p.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		d, err := lockOrder(ctx, repos, id)
		if err != nil {
			return err
		}
		class := p.classOf(d)
		if err := fn(d, class); err != nil {
			return err
		}
		if !caller.CanApprove(class) {
			return fmt.Errorf("%w: rol %s no puede decidir órdenes %s", domain.ErrForbidden, caller.Role, class)
		}
		d.UpdatedAt = p.opts.Clock()
		if err := repos.Disposals.Update(ctx, d); err != nil {
			return fmt.Errorf("actualizar orden: %w", err)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classOf usa la clasificación guardada al enviar; si falta la recalcula con el valor.
func (p *Policy) classOf(d *entity.DisposalOrder) entity.ApprovalClass {
	switch d.Classification {
	case entity.ApprovalDirect, entity.ApprovalRequiresBoardApproval:
		return d.Classification
	}
	return p.Classify(d.Value)
}

func lockOrder(ctx context.Context, repos inventory.Repositories, id string) (*entity.DisposalOrder, error) {
	d, err := repos.Disposals.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bloquear orden: %w", err)
	}
	if d == nil {
		return nil, domain.NotFound("orden", id)
	}
	return d, nil
}

func validateSubmit(in SubmitInput) error {
	if in.Kind != entity.DisposalKindDisposal && in.Kind != entity.DisposalKindReturn {
		return domain.Invalid("tipo de orden %q no reconocido", in.Kind)
	}
	if in.Reason == "" || in.LocationID == "" {
		return domain.Invalid("reason y location_id son obligatorios")
	}
	if len(in.Items) == 0 {
		return domain.Invalid("la orden debe tener al menos un ítem")
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return domain.Invalid("cada ítem requiere product_id y cantidad positiva")
		}
	}
	return nil
}

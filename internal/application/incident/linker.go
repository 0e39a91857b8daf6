package incident

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Linker asocia novedades con recepciones, despachos o tomas mediante referencias débiles.
// La referencia nunca se valida al escribir; se resuelve bajo demanda.
type Linker struct {
	txRunner inventory.TxRunner
	reads    inventory.Repositories
	opts     inventory.Options
}

func NewLinker(txRunner inventory.TxRunner, reads inventory.Repositories, opts ...inventory.Option) *Linker {
	return &Linker{txRunner: txRunner, reads: reads, opts: inventory.BuildOptions(opts)}
}

// RecordInput datos de una novedad nueva. Related es opcional.
type RecordInput struct {
	Type    string
	Note    string
	Action  string
	Related *entity.RelatedRef
	Date    time.Time
}

// Resolution resultado de resolver la referencia. Linked=false: sin vínculo o colgante.
type Resolution struct {
	Incident    *entity.Incident
	Linked      bool
	Kind        entity.RelatedKind
	Receipt     *entity.Receipt
	Delivery    *entity.Delivery
	Stocktaking *entity.Stocktaking
}

func (l *Linker) Record(ctx context.Context, in RecordInput) (*entity.Incident, error) {
	if in.Type == "" {
		return nil, l.opts.Fail("record_incident", domain.Invalid("type es obligatorio"))
	}
	if in.Related != nil {
		if err := validateRef(*in.Related); err != nil {
			return nil, l.opts.Fail("record_incident", err)
		}
	}
	now := l.opts.Clock()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	inc := &entity.Incident{
		ID:        uuid.New().String(),
		Type:      in.Type,
		Note:      in.Note,
		Action:    in.Action,
		Related:   in.Related,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.reads.Incidents.Create(ctx, inc); err != nil {
		return nil, l.opts.Fail("record_incident", fmt.Errorf("crear novedad: %w", err))
	}
	return inc, nil
}

// Link guarda la referencia tal cual, sin comprobar que el documento exista.
func (l *Linker) Link(ctx context.Context, incidentID string, ref entity.RelatedRef) (*entity.Incident, error) {
	if err := validateRef(ref); err != nil {
		return nil, l.opts.Fail("link_incident", err)
	}
	var out *entity.Incident
	err := l.txRunner.Run(ctx, func(repos inventory.Repositories) error {
		inc, err := repos.Incidents.GetByID(ctx, incidentID)
		if err != nil {
			return fmt.Errorf("consultar novedad: %w", err)
		}
		if inc == nil {
			return domain.NotFound("novedad", incidentID)
		}
		r := ref
		inc.Related = &r
		inc.UpdatedAt = l.opts.Clock()
		if err := repos.Incidents.Update(ctx, inc); err != nil {
			return fmt.Errorf("actualizar novedad: %w", err)
		}
		out = inc
		return nil
	})
	if err != nil {
		return nil, l.opts.Fail("link_incident", err)
	}
	return out, nil
}

// Get devuelve la novedad o domain.ErrNotFound.
func (l *Linker) Get(ctx context.Context, incidentID string) (*entity.Incident, error) {
	inc, err := l.reads.Incidents.GetByID(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("consultar novedad: %w", err)
	}
	if inc == nil {
		return nil, domain.NotFound("novedad", incidentID)
	}
	return inc, nil
}

// Resolve busca el documento referido. Una referencia vacía, colgante o cuya consulta
// falla se informa como sin vínculo; solo falla si la novedad misma no existe.
// Con Kind vacío se prueba recepción, despacho y toma, en ese orden.
func (l *Linker) Resolve(ctx context.Context, incidentID string) (*Resolution, error) {
	inc, err := l.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Incident: inc}
	if inc.Related == nil || inc.Related.ID == "" {
		return res, nil
	}

	kinds := []entity.RelatedKind{inc.Related.Kind}
	if inc.Related.Kind == "" {
		kinds = []entity.RelatedKind{entity.RelatedKindReceipt, entity.RelatedKindDelivery, entity.RelatedKindStocktaking}
	}
	for _, kind := range kinds {
		if l.lookup(ctx, res, kind, inc.Related.ID) {
			res.Linked = true
			res.Kind = kind
			return res, nil
		}
	}
	l.opts.Logger.Info().Str("incident_id", inc.ID).Str("related_id", inc.Related.ID).Msg("novedad sin vínculo")
	return res, nil
}

func (l *Linker) lookup(ctx context.Context, res *Resolution, kind entity.RelatedKind, id string) bool {
	var err error
	switch kind {
	case entity.RelatedKindReceipt:
		res.Receipt, err = l.reads.Receipts.GetByID(ctx, id)
		if err == nil && res.Receipt != nil {
			return true
		}
	case entity.RelatedKindDelivery:
		res.Delivery, err = l.reads.Deliveries.GetByID(ctx, id)
		if err == nil && res.Delivery != nil {
			return true
		}
	case entity.RelatedKindStocktaking:
		res.Stocktaking, err = l.reads.Stocktakings.GetByID(ctx, id)
		if err == nil && res.Stocktaking != nil {
			return true
		}
	}
	if err != nil {
		l.opts.Logger.Warn().Err(err).Str("kind", string(kind)).Str("related_id", id).Msg("no se pudo resolver la referencia")
	}
	return false
}

func validateRef(ref entity.RelatedRef) error {
	if ref.ID == "" {
		return domain.Invalid("related_id es obligatorio")
	}
	switch ref.Kind {
	case "", entity.RelatedKindReceipt, entity.RelatedKindDelivery, entity.RelatedKindStocktaking:
		return nil
	}
	return domain.Invalid("tipo de referencia %q no reconocido", ref.Kind)
}

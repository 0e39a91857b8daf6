package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type disposalRepo struct{ ss *session }

var _ repository.DisposalRepository = (*disposalRepo)(nil)

func (r *disposalRepo) Create(_ context.Context, d *entity.DisposalOrder) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.disposals, tx.s.disposals, d.ID); ok {
			return fmt.Errorf("%w: orden %s", domain.ErrDuplicate, d.ID)
		}
		tx.disposals[d.ID] = cloneDisposal(*d)
		return nil
	})
}

func (r *disposalRepo) GetByID(_ context.Context, id string) (*entity.DisposalOrder, error) {
	v, ok := lookup(r.ss, r.ss.disposals, r.ss.s.disposals, id)
	if !ok {
		return nil, nil
	}
	out := cloneDisposal(v)
	return &out, nil
}

func (r *disposalRepo) GetForUpdate(ctx context.Context, id string) (*entity.DisposalOrder, error) {
	if err := r.ss.lock(ctx, "disposal:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *disposalRepo) Update(_ context.Context, d *entity.DisposalOrder) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.disposals, tx.s.disposals, d.ID); !ok {
			return domain.NotFound("orden", d.ID)
		}
		tx.disposals[d.ID] = cloneDisposal(*d)
		return nil
	})
}

type incidentRepo struct{ ss *session }

var _ repository.IncidentRepository = (*incidentRepo)(nil)

func (r *incidentRepo) Create(_ context.Context, inc *entity.Incident) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.incidents, tx.s.incidents, inc.ID); ok {
			return fmt.Errorf("%w: novedad %s", domain.ErrDuplicate, inc.ID)
		}
		tx.incidents[inc.ID] = cloneIncident(*inc)
		return nil
	})
}

func (r *incidentRepo) GetByID(_ context.Context, id string) (*entity.Incident, error) {
	v, ok := lookup(r.ss, r.ss.incidents, r.ss.s.incidents, id)
	if !ok {
		return nil, nil
	}
	out := cloneIncident(v)
	return &out, nil
}

func (r *incidentRepo) Update(_ context.Context, inc *entity.Incident) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.incidents, tx.s.incidents, inc.ID); !ok {
			return domain.NotFound("novedad", inc.ID)
		}
		tx.incidents[inc.ID] = cloneIncident(*inc)
		return nil
	})
}

func cloneDisposal(d entity.DisposalOrder) entity.DisposalOrder {
	d.Items = slices.Clone(d.Items)
	return d
}

func cloneIncident(inc entity.Incident) entity.Incident {
	inc.Related = copyPtr(inc.Related)
	return inc
}

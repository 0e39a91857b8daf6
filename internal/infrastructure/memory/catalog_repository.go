package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type productRepo struct{ ss *session }

var _ repository.ProductRepository = (*productRepo)(nil)

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.ss.s.mu.RLock()
	defer r.ss.s.mu.RUnlock()
	p, ok := r.ss.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type locationRepo struct{ ss *session }

var _ repository.LocationRepository = (*locationRepo)(nil)

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.ss.s.mu.RLock()
	defer r.ss.s.mu.RUnlock()
	l, ok := r.ss.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

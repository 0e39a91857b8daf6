package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type stocktakingRepo struct{ ss *session }

var _ repository.StocktakingRepository = (*stocktakingRepo)(nil)

func (r *stocktakingRepo) Create(_ context.Context, st *entity.Stocktaking) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.stocktakings, tx.s.stocktakings, st.ID); ok {
			return fmt.Errorf("%w: toma %s", domain.ErrDuplicate, st.ID)
		}
		v := *st
		v.Adjustments = nil
		tx.stocktakings[st.ID] = v
		return nil
	})
}

func (r *stocktakingRepo) GetByID(_ context.Context, id string) (*entity.Stocktaking, error) {
	v, ok := lookup(r.ss, r.ss.stocktakings, r.ss.s.stocktakings, id)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *stocktakingRepo) GetForUpdate(ctx context.Context, id string) (*entity.Stocktaking, error) {
	if err := r.ss.lock(ctx, "stocktaking:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *stocktakingRepo) UpdateStatus(_ context.Context, st *entity.Stocktaking) error {
	return r.ss.write(func(tx *session) error {
		cur, ok := lookup(tx, tx.stocktakings, tx.s.stocktakings, st.ID)
		if !ok {
			return domain.NotFound("toma", st.ID)
		}
		cur.Status = st.Status
		cur.UpdatedAt = st.UpdatedAt
		tx.stocktakings[st.ID] = cur
		return nil
	})
}

func (r *stocktakingRepo) GetAdjustment(_ context.Context, id string) (*entity.StocktakingAdjustment, error) {
	v, ok := lookup(r.ss, r.ss.adjustments, r.ss.s.adjustments, id)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *stocktakingRepo) GetAdjustmentForUpdate(ctx context.Context, id string) (*entity.StocktakingAdjustment, error) {
	if err := r.ss.lock(ctx, "adjustment:"+id); err != nil {
		return nil, err
	}
	return r.GetAdjustment(ctx, id)
}

func (r *stocktakingRepo) FindAdjustment(_ context.Context, stocktakingID, productID, batch string) (*entity.StocktakingAdjustment, error) {
	found := merged(r.ss, r.ss.adjustments, r.ss.s.adjustments, func(a entity.StocktakingAdjustment) bool {
		return a.StocktakingID == stocktakingID && a.ProductID == productID && a.Batch == batch
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *stocktakingRepo) SaveAdjustment(_ context.Context, adj *entity.StocktakingAdjustment) error {
	return r.ss.write(func(tx *session) error {
		tx.adjustments[adj.ID] = *adj
		return nil
	})
}

func (r *stocktakingRepo) ListAdjustments(_ context.Context, stocktakingID string, limit, offset int) ([]*entity.StocktakingAdjustment, int, error) {
	all := merged(r.ss, r.ss.adjustments, r.ss.s.adjustments, func(a entity.StocktakingAdjustment) bool {
		return a.StocktakingID == stocktakingID
	})
	slices.SortFunc(all, func(a, b entity.StocktakingAdjustment) int {
		if c := strings.Compare(a.ProductID, b.ProductID); c != 0 {
			return c
		}
		return strings.Compare(a.Batch, b.Batch)
	})
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*entity.StocktakingAdjustment, 0, end-offset)
	for i := offset; i < end; i++ {
		a := all[i]
		out = append(out, &a)
	}
	return out, total, nil
}

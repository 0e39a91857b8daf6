package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type stockRepo struct{ ss *session }

var _ repository.StockRepository = (*stockRepo)(nil)

func (r *stockRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockRow, error) {
	row, ok := lookup(r.ss, r.ss.stock, r.ss.s.stock, key.String())
	if !ok {
		return entity.NewStockRow(key), nil
	}
	return cloneRow(row), nil
}

func (r *stockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockRow, error) {
	if err := r.ss.lock(ctx, "stock:"+key.String()); err != nil {
		return nil, err
	}
	return r.Get(ctx, key)
}

func (r *stockRepo) Save(_ context.Context, row *entity.StockRow) error {
	return r.ss.write(func(tx *session) error {
		k := row.Key.String()
		current, _ := lookup(tx, tx.stock, tx.s.stock, k)
		if current.Version != row.Version {
			return fmt.Errorf("%w: stock %s versión %d, esperada %d", domain.ErrConcurrencyConflict, k, current.Version, row.Version)
		}
		if _, seen := tx.stockBase[k]; !seen {
			tx.stockBase[k] = current.Version
		}
		row.Version++
		tx.stock[k] = *cloneRow(*row)
		return nil
	})
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockRow, error) {
	rows := merged(r.ss, r.ss.stock, r.ss.s.stock, func(v entity.StockRow) bool {
		return v.Key.ProductID == productID
	})
	slices.SortFunc(rows, func(a, b entity.StockRow) int { return a.Key.Compare(b.Key) })
	out := make([]*entity.StockRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, cloneRow(row))
	}
	return out, nil
}

type movementRepo struct{ ss *session }

var _ repository.MovementRepository = (*movementRepo)(nil)

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.ss.write(func(tx *session) error {
		tx.movements = append(tx.movements, *m)
		return nil
	})
}

func (r *movementRepo) ListAfter(_ context.Context, filter repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.Movement, error) {
	all := r.matching(filter)
	start := 0
	if after != nil {
		cur := entity.Movement{OccurredAt: after.OccurredAt, ID: after.ID}
		start = len(all)
		for i, m := range all {
			if cur.Before(m) {
				start = i
				break
			}
		}
	}
	return page(all, start, limit), nil
}

func (r *movementRepo) List(_ context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.Movement, int, error) {
	all := r.matching(filter)
	return page(all, offset, limit), len(all), nil
}

// matching devuelve los movimientos que cumplen el filtro, ordenados por (OccurredAt, ID).
func (r *movementRepo) matching(f repository.MovementFilter) []entity.Movement {
	keep := func(m entity.Movement) bool {
		switch {
		case m.ProductID != f.ProductID:
			return false
		case f.LocationID != "" && m.LocationID != f.LocationID:
			return false
		case f.FilterBatch && m.Batch != f.Batch:
			return false
		case f.From != nil && m.OccurredAt.Before(*f.From):
			return false
		case f.To != nil && m.OccurredAt.After(*f.To):
			return false
		}
		return true
	}

	var out []entity.Movement
	r.ss.s.mu.RLock()
	for _, m := range r.ss.s.movements {
		if keep(m) {
			out = append(out, m)
		}
	}
	r.ss.s.mu.RUnlock()
	for _, m := range r.ss.movements {
		if keep(m) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b entity.Movement) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return out
}

func page(all []entity.Movement, offset, limit int) []*entity.Movement {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*entity.Movement{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*entity.Movement, 0, end-offset)
	for i := offset; i < end; i++ {
		m := all[i]
		out = append(out, &m)
	}
	return out
}

func cloneRow(r entity.StockRow) *entity.StockRow {
	r.LastMovementAt = copyPtr(r.LastMovementAt)
	return &r
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StocktakingRepository = (*StocktakingRepo)(nil)

// StocktakingRepo tomas de inventario y ajustes sobre PostgreSQL (usable con pool o tx).
type StocktakingRepo struct {
	q Querier
}

func NewStocktakingRepository(q Querier) *StocktakingRepo {
	return &StocktakingRepo{q: q}
}

func (r *StocktakingRepo) Create(ctx context.Context, st *entity.Stocktaking) error {
	query := `
		INSERT INTO stocktakings (id, name, location_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, st.ID, st.Name, st.LocationID, st.Date, st.Status, st.CreatedAt, st.UpdatedAt)
	return wrap("insert stocktaking", err)
}

func (r *StocktakingRepo) GetByID(ctx context.Context, id string) (*entity.Stocktaking, error) {
	return r.get(ctx, id, "")
}

func (r *StocktakingRepo) GetForUpdate(ctx context.Context, id string) (*entity.Stocktaking, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *StocktakingRepo) get(ctx context.Context, id, suffix string) (*entity.Stocktaking, error) {
	query := `
		SELECT id, name, location_id, date, status, created_at, updated_at
		FROM stocktakings WHERE id = $1` + suffix
	var st entity.Stocktaking
	err := r.q.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.LocationID, &st.Date, &st.Status, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get stocktaking", err)
	}
	return &st, nil
}

func (r *StocktakingRepo) UpdateStatus(ctx context.Context, st *entity.Stocktaking) error {
	tag, err := r.q.Exec(ctx, `UPDATE stocktakings SET status = $2, updated_at = $3 WHERE id = $1`,
		st.ID, st.Status, st.UpdatedAt)
	if err != nil {
		return wrap("update stocktaking", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("toma", st.ID)
	}
	return nil
}

const adjustmentColumns = `id, stocktaking_id, product_id, batch, recorded_quantity, actual_quantity,
	difference, reason, status, counted_at, decided_by, updated_at`

func scanAdjustment(row pgx.Row) (*entity.StocktakingAdjustment, error) {
	var a entity.StocktakingAdjustment
	err := row.Scan(&a.ID, &a.StocktakingID, &a.ProductID, &a.Batch, &a.RecordedQuantity, &a.ActualQuantity,
		&a.Difference, &a.Reason, &a.Status, &a.CountedAt, &a.DecidedBy, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *StocktakingRepo) adjustment(ctx context.Context, where string, args ...any) (*entity.StocktakingAdjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM stocktaking_adjustments WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get adjustment", err)
	}
	return a, nil
}

func (r *StocktakingRepo) GetAdjustment(ctx context.Context, id string) (*entity.StocktakingAdjustment, error) {
	return r.adjustment(ctx, `id = $1`, id)
}

func (r *StocktakingRepo) GetAdjustmentForUpdate(ctx context.Context, id string) (*entity.StocktakingAdjustment, error) {
	return r.adjustment(ctx, `id = $1 FOR UPDATE`, id)
}

func (r *StocktakingRepo) FindAdjustment(ctx context.Context, stocktakingID, productID, batch string) (*entity.StocktakingAdjustment, error) {
	return r.adjustment(ctx, `stocktaking_id = $1 AND product_id = $2 AND batch = $3`, stocktakingID, productID, batch)
}

// SaveAdjustment upsert por id.
func (r *StocktakingRepo) SaveAdjustment(ctx context.Context, a *entity.StocktakingAdjustment) error {
	query := `
		INSERT INTO stocktaking_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			recorded_quantity = EXCLUDED.recorded_quantity,
			actual_quantity = EXCLUDED.actual_quantity,
			difference = EXCLUDED.difference,
			reason = EXCLUDED.reason,
			status = EXCLUDED.status,
			counted_at = EXCLUDED.counted_at,
			decided_by = EXCLUDED.decided_by,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.StocktakingID, a.ProductID, a.Batch, a.RecordedQuantity, a.ActualQuantity,
		a.Difference, a.Reason, a.Status, a.CountedAt, a.DecidedBy, a.UpdatedAt,
	)
	return wrap("save adjustment", err)
}

// ListAdjustments ordenados por producto y lote; limit <= 0 = todos.
func (r *StocktakingRepo) ListAdjustments(ctx context.Context, stocktakingID string, limit, offset int) ([]*entity.StocktakingAdjustment, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stocktaking_adjustments WHERE stocktaking_id = $1`, stocktakingID).Scan(&total); err != nil {
		return nil, 0, wrap("count adjustments", err)
	}
	query := `SELECT ` + adjustmentColumns + ` FROM stocktaking_adjustments
		WHERE stocktaking_id = $1 ORDER BY product_id, batch`
	args := []any{stocktakingID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap("list adjustments", err)
	}
	defer rows.Close()
	list := make([]*entity.StocktakingAdjustment, 0)
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan adjustment: %w", err)
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

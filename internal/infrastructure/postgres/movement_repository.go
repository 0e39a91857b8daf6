package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo registro append-only de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, location_id, batch, delta, reason, source_document_id, occurred_at, created_by`

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.LocationID, m.Batch, m.Delta,
		m.Reason, m.SourceDocumentID, m.OccurredAt, m.CreatedBy,
	)
	return wrap("create movement", err)
}

// movementWhere arma la cláusula WHERE del filtro; devuelve también la siguiente posición de parámetro.
func movementWhere(f repository.MovementFilter) (string, []any, int) {
	where := " WHERE product_id = $1"
	args := []any{f.ProductID}
	pos := 2
	if f.LocationID != "" {
		where += fmt.Sprintf(" AND location_id = $%d", pos)
		args = append(args, f.LocationID)
		pos++
	}
	if f.FilterBatch {
		where += fmt.Sprintf(" AND batch = $%d", pos)
		args = append(args, f.Batch)
		pos++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	return where, args, pos
}

// ListAfter paginación por conjunto de claves sobre (occurred_at, id).
func (r *MovementRepo) ListAfter(ctx context.Context, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.Movement, error) {
	where, args, pos := movementWhere(f)
	if after != nil {
		where += fmt.Sprintf(" AND (occurred_at, id) > ($%d, $%d)", pos, pos+1)
		args = append(args, after.OccurredAt, after.ID)
		pos += 2
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where +
		fmt.Sprintf(" ORDER BY occurred_at, id LIMIT $%d", pos)
	args = append(args, limit)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list movements", err)
	}
	return collectMovements(rows)
}

// List paginación por offset; total es el conteo sin paginar.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.Movement, int, error) {
	where, args, pos := movementWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrap("count movements", err)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where +
		fmt.Sprintf(" ORDER BY occurred_at, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap("list movements", err)
	}
	list, err := collectMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.LocationID, &m.Batch, &m.Delta,
			&m.Reason, &m.SourceDocumentID, &m.OccurredAt, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

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

var (
	_ repository.DisposalRepository = (*DisposalRepo)(nil)
	_ repository.IncidentRepository = (*IncidentRepo)(nil)
)

// DisposalRepo órdenes de baja/devolución e ítems sobre PostgreSQL (usable con pool o tx).
type DisposalRepo struct {
	q Querier
}

func NewDisposalRepository(q Querier) *DisposalRepo {
	return &DisposalRepo{q: q}
}

// Create inserta cabecera e ítems; llamar dentro de TxRunner.Run.
func (r *DisposalRepo) Create(ctx context.Context, d *entity.DisposalOrder) error {
	query := `
		INSERT INTO disposal_orders (id, kind, reason, location_id, date, value, classification, status,
			council, attachment, decided_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.Kind, d.Reason, d.LocationID, d.Date, d.Value, d.Classification, d.Status,
		d.Council, d.Attachment, d.DecidedBy, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return wrap("insert disposal", err)
	}
	for i, it := range d.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO disposal_items (disposal_id, line_no, product_id, batch, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, i+1, it.ProductID, it.Batch, it.Quantity, it.UnitCost,
		)
		if err != nil {
			return wrap("insert disposal item", err)
		}
	}
	return nil
}

func (r *DisposalRepo) GetByID(ctx context.Context, id string) (*entity.DisposalOrder, error) {
	return r.get(ctx, id, "")
}

func (r *DisposalRepo) GetForUpdate(ctx context.Context, id string) (*entity.DisposalOrder, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *DisposalRepo) get(ctx context.Context, id, suffix string) (*entity.DisposalOrder, error) {
	query := `
		SELECT id, kind, reason, location_id, date, value, classification, status,
			council, attachment, decided_by, created_at, updated_at
		FROM disposal_orders WHERE id = $1` + suffix
	var d entity.DisposalOrder
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Kind, &d.Reason, &d.LocationID, &d.Date, &d.Value, &d.Classification, &d.Status,
		&d.Council, &d.Attachment, &d.DecidedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get disposal", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, batch, quantity, unit_cost
		FROM disposal_items WHERE disposal_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, wrap("list disposal items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.DisposalItem
		if err := rows.Scan(&it.ProductID, &it.Batch, &it.Quantity, &it.UnitCost); err != nil {
			return nil, fmt.Errorf("scan disposal item: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return &d, rows.Err()
}

// Update persiste estado y datos de aprobación; los ítems son inmutables.
func (r *DisposalRepo) Update(ctx context.Context, d *entity.DisposalOrder) error {
	query := `
		UPDATE disposal_orders SET status = $2, council = $3, decided_by = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, d.ID, d.Status, d.Council, d.DecidedBy, d.UpdatedAt)
	if err != nil {
		return wrap("update disposal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("orden", d.ID)
	}
	return nil
}

// IncidentRepo novedades sobre PostgreSQL. related_kind/related_id NULL = sin referencia.
type IncidentRepo struct {
	q Querier
}

func NewIncidentRepository(q Querier) *IncidentRepo {
	return &IncidentRepo{q: q}
}

func relatedArgs(ref *entity.RelatedRef) (kind, id *string) {
	if ref == nil {
		return nil, nil
	}
	k := string(ref.Kind)
	return &k, &ref.ID
}

func (r *IncidentRepo) Create(ctx context.Context, inc *entity.Incident) error {
	kind, relID := relatedArgs(inc.Related)
	query := `
		INSERT INTO incidents (id, type, note, action, related_kind, related_id, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, inc.ID, inc.Type, inc.Note, inc.Action, kind, relID, inc.Date, inc.CreatedAt, inc.UpdatedAt)
	return wrap("insert incident", err)
}

func (r *IncidentRepo) GetByID(ctx context.Context, id string) (*entity.Incident, error) {
	query := `
		SELECT id, type, note, action, related_kind, related_id, date, created_at, updated_at
		FROM incidents WHERE id = $1`
	var inc entity.Incident
	var kind, relID *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inc.ID, &inc.Type, &inc.Note, &inc.Action, &kind, &relID, &inc.Date, &inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get incident", err)
	}
	if relID != nil {
		inc.Related = &entity.RelatedRef{ID: *relID}
		if kind != nil {
			inc.Related.Kind = entity.RelatedKind(*kind)
		}
	}
	return &inc, nil
}

func (r *IncidentRepo) Update(ctx context.Context, inc *entity.Incident) error {
	kind, relID := relatedArgs(inc.Related)
	query := `
		UPDATE incidents SET type = $2, note = $3, action = $4, related_kind = $5, related_id = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, inc.ID, inc.Type, inc.Note, inc.Action, kind, relID, inc.UpdatedAt)
	if err != nil {
		return wrap("update incident", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("novedad", inc.ID)
	}
	return nil
}

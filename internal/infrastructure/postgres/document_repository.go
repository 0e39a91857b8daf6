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
	_ repository.ReceiptRepository  = (*ReceiptRepo)(nil)
	_ repository.DeliveryRepository = (*DeliveryRepo)(nil)
)

// ReceiptRepo recepciones y sus líneas sobre PostgreSQL (usable con pool o tx).
type ReceiptRepo struct {
	q Querier
}

func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// Create inserta cabecera y líneas; llamar dentro de TxRunner.Run.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	query := `
		INSERT INTO receipts (id, supplier_id, location_id, date, status, has_shortage, shortage_note, damage_note, posted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		rc.ID, rc.SupplierID, rc.LocationID, rc.Date, rc.Status, rc.HasShortage,
		rc.ShortageNote, rc.DamageNote, rc.PostedAt, rc.CreatedAt, rc.UpdatedAt,
	)
	if err != nil {
		return wrap("insert receipt", err)
	}
	for i, l := range rc.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO receipt_lines (receipt_id, line_no, product_id, batch, quantity, price, shortage_quantity, damaged_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rc.ID, i+1, l.ProductID, l.Batch, l.Quantity, l.Price, l.ShortageQuantity, l.DamagedQuantity,
		)
		if err != nil {
			return wrap("insert receipt line", err)
		}
	}
	return nil
}

func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE).
func (r *ReceiptRepo) GetForUpdate(ctx context.Context, id string) (*entity.Receipt, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *ReceiptRepo) get(ctx context.Context, id, suffix string) (*entity.Receipt, error) {
	query := `
		SELECT id, supplier_id, location_id, date, status, has_shortage, shortage_note, damage_note, posted_at, created_at, updated_at
		FROM receipts WHERE id = $1` + suffix
	var rc entity.Receipt
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rc.ID, &rc.SupplierID, &rc.LocationID, &rc.Date, &rc.Status, &rc.HasShortage,
		&rc.ShortageNote, &rc.DamageNote, &rc.PostedAt, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get receipt", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, batch, quantity, price, shortage_quantity, damaged_quantity
		FROM receipt_lines WHERE receipt_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, wrap("list receipt lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.ProductID, &l.Batch, &l.Quantity, &l.Price, &l.ShortageQuantity, &l.DamagedQuantity); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		rc.Lines = append(rc.Lines, l)
	}
	return &rc, rows.Err()
}

// Update actualiza estado y notas; las líneas no cambian después de crear el documento.
func (r *ReceiptRepo) Update(ctx context.Context, rc *entity.Receipt) error {
	query := `
		UPDATE receipts SET status = $2, has_shortage = $3, shortage_note = $4, damage_note = $5,
			posted_at = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, rc.ID, rc.Status, rc.HasShortage, rc.ShortageNote, rc.DamageNote, rc.PostedAt, rc.UpdatedAt)
	if err != nil {
		return wrap("update receipt", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("recepción", rc.ID)
	}
	return nil
}

// DeliveryRepo despachos y sus líneas sobre PostgreSQL (usable con pool o tx).
type DeliveryRepo struct {
	q Querier
}

func NewDeliveryRepository(q Querier) *DeliveryRepo {
	return &DeliveryRepo{q: q}
}

func (r *DeliveryRepo) Create(ctx context.Context, d *entity.Delivery) error {
	query := `
		INSERT INTO deliveries (id, customer_id, location_id, date, status, posted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, d.ID, d.CustomerID, d.LocationID, d.Date, d.Status, d.PostedAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return wrap("insert delivery", err)
	}
	for i, l := range d.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO delivery_lines (delivery_id, line_no, product_id, batch, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, i+1, l.ProductID, l.Batch, l.Quantity, l.Price,
		)
		if err != nil {
			return wrap("insert delivery line", err)
		}
	}
	return nil
}

func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*entity.Delivery, error) {
	return r.get(ctx, id, "")
}

func (r *DeliveryRepo) GetForUpdate(ctx context.Context, id string) (*entity.Delivery, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *DeliveryRepo) get(ctx context.Context, id, suffix string) (*entity.Delivery, error) {
	query := `
		SELECT id, customer_id, location_id, date, status, posted_at, created_at, updated_at
		FROM deliveries WHERE id = $1` + suffix
	var d entity.Delivery
	err := r.q.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.CustomerID, &d.LocationID, &d.Date, &d.Status, &d.PostedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get delivery", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, batch, quantity, price
		FROM delivery_lines WHERE delivery_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, wrap("list delivery lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.ProductID, &l.Batch, &l.Quantity, &l.Price); err != nil {
			return nil, fmt.Errorf("scan delivery line: %w", err)
		}
		d.Lines = append(d.Lines, l)
	}
	return &d, rows.Err()
}

func (r *DeliveryRepo) Update(ctx context.Context, d *entity.Delivery) error {
	tag, err := r.q.Exec(ctx, `UPDATE deliveries SET status = $2, posted_at = $3, updated_at = $4 WHERE id = $1`,
		d.ID, d.Status, d.PostedAt, d.UpdatedAt)
	if err != nil {
		return wrap("update delivery", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("despacho", d.ID)
	}
	return nil
}

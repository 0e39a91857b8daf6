package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type receiptRepo struct{ ss *session }

var _ repository.ReceiptRepository = (*receiptRepo)(nil)

func (r *receiptRepo) Create(_ context.Context, receipt *entity.Receipt) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.receipts, tx.s.receipts, receipt.ID); ok {
			return fmt.Errorf("%w: recepción %s", domain.ErrDuplicate, receipt.ID)
		}
		tx.receipts[receipt.ID] = cloneReceipt(*receipt)
		return nil
	})
}

func (r *receiptRepo) GetByID(_ context.Context, id string) (*entity.Receipt, error) {
	v, ok := lookup(r.ss, r.ss.receipts, r.ss.s.receipts, id)
	if !ok {
		return nil, nil
	}
	out := cloneReceipt(v)
	return &out, nil
}

func (r *receiptRepo) GetForUpdate(ctx context.Context, id string) (*entity.Receipt, error) {
	if err := r.ss.lock(ctx, "receipt:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *receiptRepo) Update(_ context.Context, receipt *entity.Receipt) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.receipts, tx.s.receipts, receipt.ID); !ok {
			return domain.NotFound("recepción", receipt.ID)
		}
		tx.receipts[receipt.ID] = cloneReceipt(*receipt)
		return nil
	})
}

type deliveryRepo struct{ ss *session }

var _ repository.DeliveryRepository = (*deliveryRepo)(nil)

func (r *deliveryRepo) Create(_ context.Context, delivery *entity.Delivery) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.deliveries, tx.s.deliveries, delivery.ID); ok {
			return fmt.Errorf("%w: despacho %s", domain.ErrDuplicate, delivery.ID)
		}
		tx.deliveries[delivery.ID] = cloneDelivery(*delivery)
		return nil
	})
}

func (r *deliveryRepo) GetByID(_ context.Context, id string) (*entity.Delivery, error) {
	v, ok := lookup(r.ss, r.ss.deliveries, r.ss.s.deliveries, id)
	if !ok {
		return nil, nil
	}
	out := cloneDelivery(v)
	return &out, nil
}

func (r *deliveryRepo) GetForUpdate(ctx context.Context, id string) (*entity.Delivery, error) {
	if err := r.ss.lock(ctx, "delivery:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *deliveryRepo) Update(_ context.Context, delivery *entity.Delivery) error {
	return r.ss.write(func(tx *session) error {
		if _, ok := lookup(tx, tx.deliveries, tx.s.deliveries, delivery.ID); !ok {
			return domain.NotFound("despacho", delivery.ID)
		}
		tx.deliveries[delivery.ID] = cloneDelivery(*delivery)
		return nil
	})
}

func cloneReceipt(r entity.Receipt) entity.Receipt {
	r.Lines = slices.Clone(r.Lines)
	r.PostedAt = copyPtr(r.PostedAt)
	return r
}

func cloneDelivery(d entity.Delivery) entity.Delivery {
	d.Lines = slices.Clone(d.Lines)
	d.PostedAt = copyPtr(d.PostedAt)
	return d
}

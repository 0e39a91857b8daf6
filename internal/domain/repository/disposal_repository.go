package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DisposalRepository define el puerto para órdenes de baja y devolución.
type DisposalRepository interface {
	Create(ctx context.Context, d *entity.DisposalOrder) error
	GetByID(ctx context.Context, id string) (*entity.DisposalOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.DisposalOrder, error)
	Update(ctx context.Context, d *entity.DisposalOrder) error
}

// IncidentRepository define el puerto para novedades operativas.
type IncidentRepository interface {
	Create(ctx context.Context, inc *entity.Incident) error
	GetByID(ctx context.Context, id string) (*entity.Incident, error)
	Update(ctx context.Context, inc *entity.Incident) error
}

package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository puerto del catálogo de productos (colaborador externo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// LocationRepository puerto de ubicaciones.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}

package postgres

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CatalogWriter da de alta productos y ubicaciones; lo usa el comando de seed.
type CatalogWriter struct {
	products  *ProductRepo
	locations *LocationRepo
}

func NewCatalogWriter(q Querier) *CatalogWriter {
	return &CatalogWriter{
		products:  NewProductRepository(q),
		locations: NewLocationRepository(q),
	}
}

func (w *CatalogWriter) CreateProduct(ctx context.Context, p *entity.Product) error {
	return w.products.Create(ctx, p)
}

func (w *CatalogWriter) CreateLocation(ctx context.Context, l *entity.Location) error {
	return w.locations.Create(ctx, l)
}
